package api

import (
	"time"

	"github.com/nerrad567/gray-logic-home/internal/events"
)

// bridgeEvents forwards bus events to the WebSocket channels of the
// affected user.
func (s *Server) bridgeEvents() (dispose func()) {
	disposers := []func(){
		events.On(s.bus, func(t events.Toast) {
			s.hub.BroadcastTo(t.UserID, ChannelToast, t)
		}),
		events.On(s.bus, func(ev events.RoomRefresh) {
			s.hub.BroadcastTo(ev.UserID, ChannelRoomRefresh, ev)
		}),
		events.On(s.bus, func(ev events.ApplianceChanged) {
			s.hub.BroadcastTo(ev.UserID, ChannelAppliance, ev)
		}),
		events.On(s.bus, func(ev events.SecurityModeChanged) {
			s.hub.BroadcastTo(ev.UserID, ChannelSecurityMode, ev)
		}),
		events.On(s.bus, func(ev events.AutoLockArmed) {
			s.hub.BroadcastTo(ev.UserID, ChannelAutoLock, map[string]any{
				"state":            "armed",
				"duration_seconds": int(ev.Duration.Seconds()),
				"expires_at":       ev.ExpiresAt.UTC().Format(time.RFC3339),
			})
		}),
		events.On(s.bus, func(ev events.AutoLockCancelled) {
			s.hub.BroadcastTo(ev.UserID, ChannelAutoLock, map[string]any{"state": "idle", "reason": "cancelled"})
		}),
		events.On(s.bus, func(ev events.AutoLockExpired) {
			s.hub.BroadcastTo(ev.UserID, ChannelAutoLock, map[string]any{"state": "idle", "reason": "expired"})
		}),
	}
	return func() {
		for _, d := range disposers {
			d()
		}
	}
}
