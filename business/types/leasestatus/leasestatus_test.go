package leasestatus_test

import (
	"testing"

	"github.com/jcpaschoal/leasekeeper/business/types/leasestatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	for _, want := range []leasestatus.Lease{
		leasestatus.Pending,
		leasestatus.Active,
		leasestatus.Renewed,
		leasestatus.MonthToMonth,
		leasestatus.NoticeGiven,
		leasestatus.Terminated,
		leasestatus.Expired,
	} {
		got, err := leasestatus.Parse(want.String())
		require.NoError(t, err)
		assert.True(t, got.Equal(want), want.String())
	}

	_, err := leasestatus.Parse("active")
	assert.Error(t, err)

	assert.Panics(t, func() { leasestatus.MustParse("BOGUS") })
}
