package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportCounts(t *testing.T) {
	rep := Report{Deliveries: []Delivery{
		{Target: Target{Kind: KindChannel, Address: "552100"}},
		{Target: Target{Kind: KindDirect, Address: "+491511"}, Err: errors.New("bridge down")},
		{Target: Target{Kind: KindChannel, Address: "552101"}},
	}}

	require.Equal(t, 2, rep.Sent())
	require.Equal(t, 1, rep.Failed())
}

func TestReportEmpty(t *testing.T) {
	var rep Report
	require.Zero(t, rep.Sent())
	require.Zero(t, rep.Failed())
}
