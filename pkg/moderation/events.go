package moderation

import (
	"context"
	"time"
)

// EventKind names a moderation action
type EventKind string

const (
	EventMute        EventKind = "mute"
	EventUnmute      EventKind = "unmute"
	EventAutoUnmute  EventKind = "auto_unmute"
	EventWarn        EventKind = "warn"
	EventWarnTimeout EventKind = "warn_timeout"
	EventUnwarn      EventKind = "unwarn"
	EventLock        EventKind = "lock"
	EventUnlock      EventKind = "unlock"
	EventSetupMute   EventKind = "setup_mute"
	EventKick        EventKind = "kick"
	EventBan         EventKind = "ban"
	EventUnban       EventKind = "unban"
	EventVoiceKick   EventKind = "voice_kick"
	EventVoiceBan    EventKind = "voice_ban"
	EventVoiceUnban  EventKind = "voice_unban"
	EventMuteEvasion EventKind = "mute_evasion"
)

// Event describes a completed moderation action
type Event struct {
	Kind        EventKind  `json:"kind"`
	GuildID     string     `json:"guildId"`
	UserID      string     `json:"userId,omitempty"`
	ModeratorID string     `json:"moderatorId,omitempty"`
	ChannelID   string     `json:"channelId,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Until       *time.Time `json:"until,omitempty"`
	Count       int        `json:"count,omitempty"`
	At          time.Time  `json:"at"`
}

// EventSink receives moderation events. Implementations handle their own
// failures; a sink never affects the action that produced the event.
type EventSink interface {
	Publish(ctx context.Context, e Event)
}

// Sinks fans an event out to several sinks
type Sinks []EventSink

func (s Sinks) Publish(ctx context.Context, e Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(ctx, e)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) {}
