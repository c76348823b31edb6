package moderation

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// User errors. These are shown to the moderator and never counted as faults.
var (
	ErrAlreadyMuted       = errors.New("member is already muted")
	ErrNotMuted           = errors.New("member is not muted")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrDurationTooLong    = errors.New("duration exceeds 28 days")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNoMuteRole         = errors.New("no mute role configured")
	ErrAlreadyLocked      = errors.New("channel is already locked")
	ErrNotLocked          = errors.New("channel is not locked")
	ErrUnsupportedChannel = errors.New("channel type cannot be locked")
	ErrNoWarnings         = errors.New("member has no warnings")
	ErrWarningIndex       = errors.New("warning index out of range")
	ErrStaffProtected     = errors.New("member has a staff role")
	ErrNotInVoice         = errors.New("member is not in a voice channel")
	ErrNotVoiceBanned     = errors.New("member is not voice banned")
	ErrNotBanned          = errors.New("user is not banned")
)

// ErrHierarchy marks a mutation the platform rejected for missing
// permissions or role hierarchy
var ErrHierarchy = errors.New("missing permissions or role hierarchy")

// Kind is the error taxonomy used by the command layer to pick a reply
type Kind int

const (
	KindNone Kind = iota
	KindUser
	KindHierarchy
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUser:
		return "user"
	case KindHierarchy:
		return "hierarchy"
	default:
		return "system"
	}
}

var userErrors = []error{
	ErrAlreadyMuted, ErrNotMuted, ErrInvalidDuration, ErrDurationTooLong,
	ErrMemberNotFound, ErrNoMuteRole, ErrAlreadyLocked, ErrNotLocked,
	ErrUnsupportedChannel, ErrNoWarnings, ErrWarningIndex, ErrStaffProtected,
	ErrNotInVoice, ErrNotVoiceBanned, ErrNotBanned,
}

// Classify maps err onto the taxonomy
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, u := range userErrors {
		if errors.Is(err, u) {
			return KindUser
		}
	}
	if errors.Is(err, ErrHierarchy) {
		return KindHierarchy
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return KindHierarchy
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return KindUser
		}
	}
	return KindSystem
}

// IsUserError reports whether err is a rejection rather than a fault
func IsUserError(err error) bool {
	return Classify(err) == KindUser
}

// platformError wraps a failed platform call with the matching sentinel
func platformError(op string, err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%s: %w: %w", op, ErrHierarchy, err)
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%s: %w: %w", op, ErrMemberNotFound, err)
		case discordgo.ErrCodeUnknownBan:
			return fmt.Errorf("%s: %w: %w", op, ErrNotBanned, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnknownMember(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}
