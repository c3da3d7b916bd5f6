package lookup_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecords_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, lookup.EncodeRecords(&buf, []*model.GovernanceRecord{{
		SearchName:          "Errors, Last Hour",
		Owner:               "bob",
		App:                 "search",
		Status:              model.StatusNotified,
		RemediationDeadline: 1704672000,
		NotificationSent:    true,
		FlagReason:          `runs "every" minute`,
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "search_name,search_owner,search_app,flagged_by,flagged_time,notification_sent,notification_time,remediation_deadline,status,reason,notes", lines[0])
	assert.Equal(t, `"Errors, Last Hour",bob,search,,,1,,1704672000,notified,"runs ""every"" minute",`, lines[1])
}

func TestDecodeRecords_ColumnOrderAndFloats(t *testing.T) {
	in := "status,search_name,remediation_deadline,notification_sent,extra\n" +
		"NOTIFIED,Nightly Rollup,1704672000.0,1,x\n" +
		",,,,\n" +
		"pending,Hourly Audit,,0,\n"

	recs, err := lookup.DecodeRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Nightly Rollup", recs[0].SearchName)
	assert.Equal(t, model.StatusNotified, recs[0].Status)
	assert.Equal(t, int64(1704672000), recs[0].RemediationDeadline)
	assert.True(t, recs[0].NotificationSent)
	assert.Equal(t, "", recs[0].Owner)

	assert.Equal(t, model.StatusPending, recs[1].Status)
	assert.Equal(t, int64(0), recs[1].RemediationDeadline)
}

func TestDecodeRecords_BadNumber(t *testing.T) {
	_, err := lookup.DecodeRecords(strings.NewReader("search_name,flagged_time\na,yesterday\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeRecords_Empty(t *testing.T) {
	recs, err := lookup.DecodeRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecords_RoundTrip(t *testing.T) {
	want := []*model.GovernanceRecord{
		{SearchName: "a", Owner: "o", App: "x", FlaggedBy: "admin", FlaggedTime: 1704067200, Status: model.StatusPending, FlagReason: "r", Notes: "n"},
		{SearchName: "b", Status: model.StatusNotified, NotificationSent: true, NotificationTime: 1704067300, RemediationDeadline: 1704672000},
	}
	var buf bytes.Buffer
	require.NoError(t, lookup.EncodeRecords(&buf, want))
	got, err := lookup.DecodeRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeInventory(t *testing.T) {
	in := "search_name,search_owner,search_app,is_suspicious,disabled,suspicious_reason\n" +
		"Every Minute,bob,search,1,0,cron * * * * *\n" +
		"Old Report,alice,reporting,false,true,\n"
	facts, err := lookup.DecodeInventory(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.True(t, facts[0].IsSuspicious)
	assert.False(t, facts[0].Disabled)
	assert.Equal(t, "cron * * * * *", facts[0].SuspiciousReason)
	assert.True(t, facts[1].Disabled)
}

func TestDecode_NormalizesSearchNames(t *testing.T) {
	decomposed := "Cafe\u0301 Errors"
	composed := "Caf\u00e9 Errors"

	recs, err := lookup.DecodeRecords(strings.NewReader("search_name,status\n" + decomposed + ",pending\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, composed, recs[0].SearchName)

	snap := &lookup.Snapshot{Records: recs}
	assert.NotNil(t, snap.Find(composed))

	facts, err := lookup.DecodeInventory(strings.NewReader("search_name,is_suspicious\n " + decomposed + " ,1\n"))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, composed, facts[0].SearchName)
}
