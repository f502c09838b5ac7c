package rides

import (
	"context"
	"errors"
	"io"
	"testing"

	logrus "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/models"
)

type lookupFunc func(ctx context.Context, email string) (models.User, error)

func (f lookupFunc) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return f(ctx, email)
}

func usersByEmail(users ...models.User) UserLookup {
	return lookupFunc(func(_ context.Context, email string) (models.User, error) {
		for _, u := range users {
			if u.Email == email {
				return u, nil
			}
		}
		return models.User{}, apperr.NotFound("user not found")
	})
}

func TestGateResolve(t *testing.T) {
	admin := models.User{ID: 1, Role: models.RoleAdmin, Email: "admin@example.com"}
	rider := models.User{ID: 2, Role: models.RoleRider, Email: "rider@example.com"}
	driver := models.User{ID: 3, Role: models.RoleDriver, Email: "driver@example.com"}
	gate := NewGate(usersByEmail(admin, rider, driver))

	p, err := gate.Resolve(context.Background(), "  admin@example.com ")
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}, p)

	cases := []struct {
		claim string
		kind  apperr.Kind
	}{
		{"", apperr.KindUnauthenticated},
		{"   ", apperr.KindUnauthenticated},
		{"nobody@example.com", apperr.KindUnauthenticated},
		{"ADMIN@example.com", apperr.KindUnauthenticated},
		{"rider@example.com", apperr.KindForbidden},
		{"driver@example.com", apperr.KindForbidden},
	}
	for _, tc := range cases {
		_, err := gate.Resolve(context.Background(), tc.claim)
		assert.Equal(t, tc.kind, apperr.KindOf(err), "claim %q", tc.claim)
	}
}

func TestGatePassesStoreFailuresThrough(t *testing.T) {
	down := apperr.Wrap(apperr.KindUnavailable, "store unavailable", errors.New("connection refused"))
	gate := NewGate(lookupFunc(func(context.Context, string) (models.User, error) {
		return models.User{}, down
	}))

	_, err := gate.Resolve(context.Background(), "admin@example.com")
	assert.ErrorIs(t, err, down)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestPipelineRejectsBackwardTransition(t *testing.T) {
	p := newPipeline(context.Background(), logrusDiscard())
	require.NoError(t, p.advance(StageAuthorizing))
	require.NoError(t, p.advance(StageFetching))
	assert.Error(t, p.advance(StageFilterBuilding))

	err := p.fail(apperr.Validation("bad"))
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageFetching, stageErr.Stage)
	assert.Error(t, p.advance(StageProjected))
	assert.Equal(t, "filter_building", StageFilterBuilding.String())
	assert.Equal(t, "error", StageFailed.String())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageMerging.Terminal())
}

func logrusDiscard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
