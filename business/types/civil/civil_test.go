package civil_test

import (
	"testing"
	"time"

	"github.com/jcpaschoal/leasekeeper/business/types/civil"
	"github.com/stretchr/testify/assert"
)

func Test_Date(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midnight", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"afternoon", time.Date(2026, 3, 15, 17, 45, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"own location", time.Date(2026, 3, 15, 22, 0, 0, 0, saoPaulo), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(civil.Date(tt.in)))
		})
	}
}

func Test_DateIn(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	late := time.Date(2026, 3, 16, 1, 30, 0, 0, time.UTC)

	assert.True(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).Equal(civil.DateIn(late, saoPaulo)))
	assert.True(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC).Equal(civil.DateIn(late, time.UTC)))
}
