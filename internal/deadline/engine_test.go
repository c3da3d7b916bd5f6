package deadline_test

import (
	"errors"
	"testing"

	"github.com/sgov-project/sgov/internal/deadline"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const now int64 = 1704067200

func notified(name string, deadlineAt int64) *model.GovernanceRecord {
	return &model.GovernanceRecord{SearchName: name, Status: model.StatusNotified, RemediationDeadline: deadlineAt}
}

func TestInitial(t *testing.T) {
	rec := &model.GovernanceRecord{SearchName: "a", Status: model.StatusPending}
	assert.Equal(t, int64(1704672000), deadline.Initial(rec, 7, now))

	rec.RemediationDeadline = now + 100
	assert.Equal(t, now+100, deadline.Initial(rec, 7, now))
}

func TestExtend_ZeroRejected(t *testing.T) {
	for _, rec := range []*model.GovernanceRecord{
		notified("a", now+86400),
		notified("b", 0),
		notified("c", now-86400),
	} {
		res, err := deadline.Extend(rec, 0, now)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, errclass.ErrInvalidExtension))
	}
}

func TestExtend_NoDeadline(t *testing.T) {
	_, err := deadline.Extend(notified("a", 0), 3, now)
	assert.True(t, errors.Is(err, errclass.ErrInvalidExtension))
}

func TestExtend_EmptyBatch(t *testing.T) {
	_, err := deadline.ExtendBatch(nil, 3, now)
	assert.True(t, errors.Is(err, errclass.ErrInvalidExtension))
}

func TestExtend_Positive(t *testing.T) {
	rec := notified("Daily License Report", now+86400)
	res, err := deadline.Extend(rec, 5, now)
	require.NoError(t, err)

	assert.Equal(t, deadline.DirectionExtended, res.Direction)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, now+6*86400, res.Updated[0].RemediationDeadline)
	assert.Equal(t, now+86400, rec.RemediationDeadline, "input must not be modified")
	assert.Equal(t, "Deadline for 'Daily License Report' extended by 5 days.", res.Message)
	assert.Equal(t, []deadline.Change{{SearchName: "Daily License Report", OldDeadline: now + 86400, NewDeadline: now + 6*86400}}, res.Changes)
}

func TestExtend_ReduceStillInFuture(t *testing.T) {
	rec := notified("a", now+10*86400)
	res, err := deadline.Extend(rec, -3, now)
	require.NoError(t, err)
	assert.Equal(t, deadline.DirectionReduced, res.Direction)
	assert.Equal(t, now+7*86400, res.Updated[0].RemediationDeadline)
	assert.Equal(t, "Deadline for 'a' reduced by 3 days.", res.Message)
}

func TestExtend_ReduceToExactlyNowIsBlocked(t *testing.T) {
	rec := notified("a", now+86400)
	res, err := deadline.Extend(rec, -1, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrRequiresDisableConfirmation))
	require.NotNil(t, res)
	assert.True(t, res.Blocked())
	assert.Empty(t, res.Updated)
	assert.Equal(t, now+86400, rec.RemediationDeadline)
}

func TestExtend_RoundTrip(t *testing.T) {
	original := now + 2*86400 + 1234
	rec := notified("a", original)

	up, err := deadline.Extend(rec, 7, now)
	require.NoError(t, err)
	down, err := deadline.Extend(up.Updated[0], -7, now)
	require.NoError(t, err)
	assert.Equal(t, original, down.Updated[0].RemediationDeadline)
}

func TestExtendBatch_BlockedAsAWhole(t *testing.T) {
	soon := notified("expires soon", now+86400)
	later := notified("plenty of time", now+30*86400)

	res, err := deadline.ExtendBatch([]*model.GovernanceRecord{soon, later}, -3, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrRequiresDisableConfirmation))
	require.Len(t, res.Expired, 1)
	assert.Equal(t, "expires soon", res.Expired[0].SearchName)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Changes)
	assert.Equal(t, now+86400, soon.RemediationDeadline)
	assert.Equal(t, now+30*86400, later.RemediationDeadline)
}

func TestExtendBatch_Message(t *testing.T) {
	recs := []*model.GovernanceRecord{notified("a", now+86400), notified("b", now+2*86400)}
	res, err := deadline.ExtendBatch(recs, 2, now)
	require.NoError(t, err)
	assert.Equal(t, "Deadlines for 2 searches extended by 2 days.", res.Message)
	assert.Len(t, res.Updated, 2)
}
