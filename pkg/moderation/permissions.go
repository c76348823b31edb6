package moderation

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Capability sets, by channel class.
const (
	TextLockSet int64 = discordgo.PermissionSendMessages |
		discordgo.PermissionAddReactions |
		discordgo.PermissionCreatePublicThreads |
		discordgo.PermissionCreatePrivateThreads |
		discordgo.PermissionSendMessagesInThreads
	VoiceLockSet  int64 = discordgo.PermissionVoiceConnect
	StageLockSet  int64 = discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak
	ThreadLockSet int64 = discordgo.PermissionSendMessages |
		discordgo.PermissionSendMessagesInThreads |
		discordgo.PermissionAddReactions

	MuteTextSet  int64 = TextLockSet
	MuteVoiceSet int64 = discordgo.PermissionVoiceSpeak | discordgo.PermissionVoiceStreamVideo

	allPermissions int64 = ^int64(0)
	timeoutAllowed int64 = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
)

// ChannelClass groups channel types by the capabilities a lock touches
type ChannelClass int

const (
	ClassOther ChannelClass = iota
	ClassText
	ClassVoice
	ClassStage
	ClassThread
	ClassCategory
)

func (c ChannelClass) String() string {
	switch c {
	case ClassText:
		return "text"
	case ClassVoice:
		return "voice"
	case ClassStage:
		return "stage"
	case ClassThread:
		return "thread"
	case ClassCategory:
		return "category"
	default:
		return "other"
	}
}

// ClassOf returns the class of ch
func ClassOf(ch *discordgo.Channel) ChannelClass {
	if ch == nil {
		return ClassOther
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews, discordgo.ChannelTypeGuildForum:
		return ClassText
	case discordgo.ChannelTypeGuildVoice:
		return ClassVoice
	case discordgo.ChannelTypeGuildStageVoice:
		return ClassStage
	case discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return ClassThread
	case discordgo.ChannelTypeGuildCategory:
		return ClassCategory
	default:
		return ClassOther
	}
}

// LockSet returns the capabilities lock denies for class c
func LockSet(c ChannelClass) int64 {
	switch c {
	case ClassText:
		return TextLockSet
	case ClassVoice:
		return VoiceLockSet
	case ClassStage:
		return StageLockSet
	case ClassThread:
		return ThreadLockSet
	default:
		return 0
	}
}

// MuteSet returns the capabilities the mute role denies for class c.
// Threads inherit from their parent and are skipped.
func MuteSet(c ChannelClass) int64 {
	switch c {
	case ClassText:
		return MuteTextSet
	case ClassVoice, ClassStage:
		return MuteVoiceSet
	case ClassCategory:
		return MuteTextSet | MuteVoiceSet
	default:
		return 0
	}
}

func findOverwrite(ch *discordgo.Channel, id string) *discordgo.PermissionOverwrite {
	if ch == nil {
		return nil
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == id {
			return ow
		}
	}
	return nil
}

// denyBits returns the overwrite for id with bits moved to deny
func denyBits(existing *discordgo.PermissionOverwrite, id string, typ discordgo.PermissionOverwriteType, bits int64) *discordgo.PermissionOverwrite {
	ow := &discordgo.PermissionOverwrite{ID: id, Type: typ}
	if existing != nil {
		ow.Type = existing.Type
		ow.Allow = existing.Allow
		ow.Deny = existing.Deny
	}
	ow.Allow &^= bits
	ow.Deny |= bits
	return ow
}

// clearBits returns the overwrite for id with bits neither allowed nor denied
func clearBits(existing *discordgo.PermissionOverwrite, id string, typ discordgo.PermissionOverwriteType, bits int64) *discordgo.PermissionOverwrite {
	ow := &discordgo.PermissionOverwrite{ID: id, Type: typ}
	if existing != nil {
		ow.Type = existing.Type
		ow.Allow = existing.Allow
		ow.Deny = existing.Deny
	}
	ow.Allow &^= bits
	ow.Deny &^= bits
	return ow
}

func roleByID(guild *discordgo.Guild, id string) *discordgo.Role {
	for _, r := range guild.Roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func hasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func memberID(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	return m.User.ID
}

// BasePermissions computes guild-level permissions for member
func BasePermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild.OwnerID != "" && memberID(member) == guild.OwnerID {
		return allPermissions
	}
	var perms int64
	if everyone := roleByID(guild, guild.ID); everyone != nil {
		perms = everyone.Permissions
	}
	for _, id := range member.Roles {
		if r := roleByID(guild, id); r != nil {
			perms |= r.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return allPermissions
	}
	return perms
}

// IsAdministrator reports owner or administrator rights
func IsAdministrator(guild *discordgo.Guild, member *discordgo.Member) bool {
	return BasePermissions(guild, member) == allPermissions
}

// EveryonePermissions computes what @everyone may do in ch
func EveryonePermissions(guild *discordgo.Guild, ch *discordgo.Channel) int64 {
	var perms int64
	if everyone := roleByID(guild, guild.ID); everyone != nil {
		perms = everyone.Permissions
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return allPermissions
	}
	if ow := findOverwrite(ch, guild.ID); ow != nil {
		perms &^= ow.Deny
		perms |= ow.Allow
	}
	return perms
}

// EffectivePermissions computes member's permissions in ch: @everyone
// overwrite, then the union of role overwrites, then the member overwrite.
// A timed-out member keeps only view and read-history.
func EffectivePermissions(guild *discordgo.Guild, ch *discordgo.Channel, member *discordgo.Member, now time.Time) int64 {
	perms := BasePermissions(guild, member)
	if perms == allPermissions {
		return perms
	}

	if ow := findOverwrite(ch, guild.ID); ow != nil {
		perms &^= ow.Deny
		perms |= ow.Allow
	}

	var allow, deny int64
	for _, id := range member.Roles {
		if ow := findOverwrite(ch, id); ow != nil && ow.Type == discordgo.PermissionOverwriteTypeRole {
			allow |= ow.Allow
			deny |= ow.Deny
		}
	}
	perms &^= deny
	perms |= allow

	if ow := findOverwrite(ch, memberID(member)); ow != nil && ow.Type == discordgo.PermissionOverwriteTypeMember {
		perms &^= ow.Deny
		perms |= ow.Allow
	}

	if member.CommunicationDisabledUntil != nil && member.CommunicationDisabledUntil.After(now) {
		perms &= timeoutAllowed
	}
	return perms
}
