package models

import (
	"fmt"
	"strings"
)

// LogType identifica una categoría de logs de auditoría
type LogType string

const (
	LogVoice    LogType = "voice"
	LogMessage  LogType = "message"
	LogChannels LogType = "channels"
	LogRoles    LogType = "roles"
	LogServer   LogType = "server"
)

// LogTypeList is the canonical order used for display and storage
var LogTypeList = []LogType{LogVoice, LogMessage, LogChannels, LogRoles, LogServer}

// LogTypes mirrors the stored {voice, message, channels, roles, server} object
type LogTypes struct {
	Voice    bool `bson:"voice" json:"voice"`
	Message  bool `bson:"message" json:"message"`
	Channels bool `bson:"channels" json:"channels"`
	Roles    bool `bson:"roles" json:"roles"`
	Server   bool `bson:"server" json:"server"`
}

// AllLogTypes returns a LogTypes with every flag set to v
func AllLogTypes(v bool) LogTypes {
	return LogTypes{Voice: v, Message: v, Channels: v, Roles: v, Server: v}
}

// Get returns the flag for t
func (lt LogTypes) Get(t LogType) bool {
	switch t {
	case LogVoice:
		return lt.Voice
	case LogMessage:
		return lt.Message
	case LogChannels:
		return lt.Channels
	case LogRoles:
		return lt.Roles
	case LogServer:
		return lt.Server
	}
	return false
}

// Set updates the flag for t
func (lt *LogTypes) Set(t LogType, v bool) {
	switch t {
	case LogVoice:
		lt.Voice = v
	case LogMessage:
		lt.Message = v
	case LogChannels:
		lt.Channels = v
	case LogRoles:
		lt.Roles = v
	case LogServer:
		lt.Server = v
	}
}

// Enabled lists the types that are on, in canonical order
func (lt LogTypes) Enabled() []LogType {
	var out []LogType
	for _, t := range LogTypeList {
		if lt.Get(t) {
			out = append(out, t)
		}
	}
	return out
}

// LogChannel routes a set of log types to one channel
type LogChannel struct {
	ChannelID string   `bson:"channelId" json:"channelId"`
	Types     LogTypes `bson:"types" json:"types"`
}

// LogSettings is the "logs" sub-document
type LogSettings struct {
	Enabled   bool         `bson:"enabled" json:"enabled"`
	ChannelID string       `bson:"channelId,omitempty" json:"channelId,omitempty"`
	Types     LogTypes     `bson:"types" json:"types"`
	Channels  []LogChannel `bson:"channels" json:"channels"`
}

func (l LogSettings) clone() LogSettings {
	c := l
	if l.Channels != nil {
		c.Channels = append([]LogChannel(nil), l.Channels...)
	}
	return c
}

// ChannelFor returns the channel that should receive logs of type t.
// A channel-specific route wins over the legacy single channel.
func (l LogSettings) ChannelFor(t LogType) (string, bool) {
	if !l.Enabled || !l.Types.Get(t) {
		return "", false
	}
	for _, ch := range l.Channels {
		if ch.Types.Get(t) && ch.ChannelID != "" {
			return ch.ChannelID, true
		}
	}
	if l.ChannelID != "" {
		return l.ChannelID, true
	}
	return "", false
}

// RouteTypes sends types to channelID and disables them on every other
// channel, so each type has at most one route. Logs and the global flags for
// the types are switched on.
func (l *LogSettings) RouteTypes(channelID string, types []LogType) {
	found := false
	for i := range l.Channels {
		ch := &l.Channels[i]
		if ch.ChannelID == channelID {
			found = true
			for _, t := range types {
				ch.Types.Set(t, true)
			}
			continue
		}
		for _, t := range types {
			ch.Types.Set(t, false)
		}
	}
	if !found {
		route := LogChannel{ChannelID: channelID}
		for _, t := range types {
			route.Types.Set(t, true)
		}
		l.Channels = append(l.Channels, route)
	}

	l.Enabled = true
	for _, t := range types {
		l.Types.Set(t, true)
	}
}

// RemoveChannel drops the route for channelID and reports whether it existed
func (l *LogSettings) RemoveChannel(channelID string) bool {
	for i, ch := range l.Channels {
		if ch.ChannelID == channelID {
			l.Channels = append(l.Channels[:i], l.Channels[i+1:]...)
			return true
		}
	}
	if l.ChannelID == channelID {
		l.ChannelID = ""
		return true
	}
	return false
}

var logTypeAliases = map[string]LogType{
	// en
	"voice":    LogVoice,
	"message":  LogMessage,
	"channel":  LogChannels,
	"channels": LogChannels,
	"role":     LogRoles,
	"roles":    LogRoles,
	"server":   LogServer,
	// fr
	"vocal":    LogVoice,
	"voix":     LogVoice,
	"messages": LogMessage,
	"salon":    LogChannels,
	"salons":   LogChannels,
	"serveur":  LogServer,
	// es
	"voz":      LogVoice,
	"mensaje":  LogMessage,
	"mensajes": LogMessage,
	"canal":    LogChannels,
	"canales":  LogChannels,
	"rol":      LogRoles,
	"servidor": LogServer,
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a",
	"é", "e", "è", "e", "ê", "e",
	"í", "i", "î", "i",
	"ó", "o", "ô", "o",
	"ú", "u", "ù", "u", "û", "u",
)

// ParseLogType resolves one token (any supported language, accents ignored)
func ParseLogType(token string) (LogType, bool) {
	t, ok := logTypeAliases[accentFolder.Replace(strings.ToLower(strings.TrimSpace(token)))]
	return t, ok
}

// ParseLogTypes parses a comma separated list. Unknown tokens are returned
// in the error so the caller can show them.
func ParseLogTypes(list string) ([]LogType, error) {
	var (
		out     []LogType
		invalid []string
		seen    = map[LogType]bool{}
	)
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t, ok := ParseLogType(raw)
		if !ok {
			invalid = append(invalid, raw)
			continue
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(invalid) > 0 {
		return out, &InvalidLogTypesError{Tokens: invalid}
	}
	if len(out) == 0 {
		return nil, &InvalidLogTypesError{}
	}
	return out, nil
}

// InvalidLogTypesError lists the tokens ParseLogTypes could not resolve
type InvalidLogTypesError struct {
	Tokens []string
}

func (e *InvalidLogTypesError) Error() string {
	if len(e.Tokens) == 0 {
		return "no log types given"
	}
	return fmt.Sprintf("invalid log types: %s", strings.Join(e.Tokens, ", "))
}
