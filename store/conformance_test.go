package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bijush/Avoter/models"
)

// runStoreConformance exercises the RecordStore contract against a live
// backend. Shared by the opt-in Postgres and Mongo integration tests.
func runStoreConformance(t *testing.T, s RecordStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	id := uuid.NewString()
	rec := models.Record{
		ID: id, Name: "Conformance Holder", Epic: "EP-1", PS: "7",
		OldHouse: "old", NewHouse: "new", Payment: 1500,
		Paid: "yes", WifeName: "Spouse", WifePayment: 750,
		Remark: "initial", Attachments: []string{"/files/" + id + "/a.pdf"},
		CreatedAt: "2026-01-02 10:00:00", UpdatedAt: "2026-01-02 10:00:00",
	}
	require.NoError(t, s.Create(ctx, rec))
	defer func() { _ = s.Delete(ctx, id) }()

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	recs, err := s.List(ctx)
	require.NoError(t, err)
	found := false
	for _, r := range recs {
		if r.ID == id {
			found = true
			assert.Equal(t, rec, r)
		}
	}
	assert.True(t, found, "created record missing from listing")

	rec.NewHouse = "H-42"
	require.NoError(t, s.Update(ctx, rec))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "H-42", got.NewHouse)

	require.NoError(t, s.UpdateRemark(ctx, id, "amended"))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "amended", got.Remark)
	assert.Equal(t, "H-42", got.NewHouse)

	require.NoError(t, s.SetAttachments(ctx, id, nil))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Attachments)

	_, err = s.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, id))
}
