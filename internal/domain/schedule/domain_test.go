package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mangawatch/internal/domain/notify"
)

func TestValidate(t *testing.T) {
	at := time.Date(2026, 9, 4, 20, 0, 0, 0, time.UTC)
	targets := []notify.Target{{Kind: notify.KindChannel, Address: "552100"}}

	cases := []struct {
		name string
		def  Definition
		want error
	}{
		{
			name: "one-shot ok",
			def:  Definition{Kind: KindOneShot, FireAt: &at, Targets: targets},
		},
		{
			name: "recurring ok",
			def:  Definition{Kind: KindRecurring, CronExpr: "0 9 * * 1", Targets: targets},
		},
		{
			name: "one-shot without fire_at",
			def:  Definition{Kind: KindOneShot, Targets: targets},
			want: ErrKindMismatch,
		},
		{
			name: "one-shot with cron_expr",
			def:  Definition{Kind: KindOneShot, FireAt: &at, CronExpr: "0 9 * * 1", Targets: targets},
			want: ErrKindMismatch,
		},
		{
			name: "recurring with fire_at",
			def:  Definition{Kind: KindRecurring, CronExpr: "0 9 * * 1", FireAt: &at, Targets: targets},
			want: ErrKindMismatch,
		},
		{
			name: "unknown kind",
			def:  Definition{Kind: "CALENDAR", FireAt: &at, Targets: targets},
			want: ErrKindMismatch,
		},
		{
			name: "no targets",
			def:  Definition{Kind: KindOneShot, FireAt: &at},
			want: ErrNoTargets,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}
