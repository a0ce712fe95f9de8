package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/contentvault/cmd/contentvault/models"
)

func policyRef(age time.Duration, size int64, blobPath string) *models.OrphanedContentReference {
	ownerID := uuid.New()
	now := time.Now().UTC()
	return &models.OrphanedContentReference{
		BlobPath:         blobPath,
		Digest:           ComputeDigest([]byte("policy")),
		SizeBytes:        size,
		LastReferencedAt: now.Add(-age),
		CreatedAt:        now.Add(-age),
		OwnerID:          &ownerID,
	}
}

func TestRetentionPolicy_EmptyAllowsAll(t *testing.T) {
	policy, err := NewRetentionPolicy("")
	require.NoError(t, err)

	allowed, err := policy.Allows(policyRef(time.Hour, 10, "services/content/x/y.bin"), time.Now().UTC(), false, false)
	require.NoError(t, err)
	assert.True(t, allowed)

	// A nil policy behaves the same
	var nilPolicy *RetentionPolicy
	allowed, err = nilPolicy.Allows(policyRef(time.Hour, 10, "services/content/x/y.bin"), time.Now().UTC(), false, false)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRetentionPolicy_AgeRule(t *testing.T) {
	policy, err := NewRetentionPolicy("age_days > 180.0")
	require.NoError(t, err)

	now := time.Now().UTC()

	allowed, err := policy.Allows(policyRef(200*24*time.Hour, 10, "services/content/x/y.bin"), now, false, false)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = policy.Allows(policyRef(100*24*time.Hour, 10, "services/content/x/y.bin"), now, false, false)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRetentionPolicy_ExtensionAndSize(t *testing.T) {
	policy, err := NewRetentionPolicy(`extension != "pdf" && size_bytes < 1000`)
	require.NoError(t, err)

	now := time.Now().UTC()
	digest := ComputeDigest([]byte("policy"))

	allowed, err := policy.Allows(policyRef(time.Hour, 10, "services/content/x/"+digest+".txt"), now, false, false)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = policy.Allows(policyRef(time.Hour, 10, "services/content/x/"+digest+".pdf"), now, false, false)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = policy.Allows(policyRef(time.Hour, 5000, "services/content/x/"+digest+".txt"), now, false, false)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRetentionPolicy_OwnerState(t *testing.T) {
	policy, err := NewRetentionPolicy("!owner_exists || owner_deleted")
	require.NoError(t, err)

	now := time.Now().UTC()
	ref := policyRef(time.Hour, 10, "services/content/x/y.bin")

	allowed, err := policy.Allows(ref, now, false, false)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = policy.Allows(ref, now, true, false)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestNewRetentionPolicy_CompileErrors(t *testing.T) {
	_, err := NewRetentionPolicy("age_days >")
	assert.Error(t, err)

	// Expressions must evaluate to bool
	_, err = NewRetentionPolicy("age_days + 1.0")
	assert.Error(t, err)

	// Unknown variables are rejected at compile time
	_, err = NewRetentionPolicy("unknown_var == true")
	assert.Error(t, err)
}
