package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStageNormalize(t *testing.T) {
	require.Equal(t, StageIdle, Stage("").Normalize())
	require.Equal(t, StageIdle, Stage("dispatching").Normalize())
	require.Equal(t, StageConfirm, StageConfirm.Normalize())
}

func TestNewSession_ToneFollowsHost(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", HostExpress, "brand-1", "", now, time.Hour)
	require.Equal(t, ToneFriendly, s.Tone)
	require.Equal(t, StageIdle, s.Stage)
	require.False(t, s.Expired(now.Add(59*time.Minute)))
	require.True(t, s.Expired(now.Add(time.Hour)))

	require.Equal(t, ToneFormal, NewSession("s2", HostStudio, "brand-1", "", now, time.Hour).Tone)
}

func TestSessionFlags(t *testing.T) {
	s := &Session{}
	require.False(t, s.Flag(FlagWelcomed))
	s.SetFlag(FlagWelcomed, true)
	require.True(t, s.Flag(FlagWelcomed))
	s.SetFlag(FlagWelcomed, false)
	require.False(t, s.Flag(FlagWelcomed))
	s.SetFlag(FlagCorrecting, false)
	require.Empty(t, s.Flags)
}

func TestSessionClone_IsDeep(t *testing.T) {
	b, err := completeDraft().Finalize()
	require.NoError(t, err)
	q := 2
	s := NewSession("s1", HostStudio, "brand-1", "", time.Now(), time.Hour)
	s.Draft = completeDraft()
	s.Brief = &b
	s.LastQueueSize = &q
	s.SetFlag(FlagWelcomed, true)

	c := s.Clone()
	*c.Draft.Slides = 12
	*c.LastQueueSize = 7
	c.SetFlag(FlagCorrecting, true)
	c.Brief = nil

	require.Equal(t, 5, *s.Draft.Slides)
	require.Equal(t, 2, *s.LastQueueSize)
	require.False(t, s.Flag(FlagCorrecting))
	require.NotNil(t, s.Brief)
}
