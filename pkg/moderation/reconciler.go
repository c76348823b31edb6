package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Reconciler applies channel locks and the mute role to permission overwrites
type Reconciler struct {
	dir GuildDirectory
	now func() time.Time
}

// NewReconciler creates a Reconciler on dir
func NewReconciler(dir GuildDirectory) *Reconciler {
	return &Reconciler{dir: dir, now: time.Now}
}

// LockResult describes what Lock changed
type LockResult struct {
	ChannelID string
	Class     ChannelClass
	// Swept lists the overwrite targets whose explicit allow was turned into a deny
	Swept []string
	// MemberOverride is set when the sampled member needed its own deny
	MemberOverride string
}

// Lock denies the channel-class capabilities to @everyone and to every
// overwrite that explicitly allows them. Only the @everyone edit is fatal.
func (r *Reconciler) Lock(ctx context.Context, channelID, reason string) (*LockResult, error) {
	ch, err := r.dir.Channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	class := ClassOf(ch)
	res := &LockResult{ChannelID: ch.ID, Class: class}

	if class == ClassThread {
		return res, r.lockThread(ctx, ch, reason)
	}

	set := LockSet(class)
	if set == 0 {
		return nil, ErrUnsupportedChannel
	}

	guild, err := r.dir.Guild(ctx, ch.GuildID)
	if err != nil {
		return nil, err
	}
	if EveryonePermissions(guild, ch)&set == 0 {
		return nil, ErrAlreadyLocked
	}

	everyone := denyBits(findOverwrite(ch, guild.ID), guild.ID, discordgo.PermissionOverwriteTypeRole, set)
	if err := r.dir.EditOverwrite(ctx, ch.ID, everyone, reason); err != nil {
		return nil, fmt.Errorf("lock %s: %w", ch.ID, err)
	}
	logger.Info(fmt.Sprintf("Canal %s bloqueado para @everyone", ch.ID), "Lock")

	res.Swept = r.sweep(ctx, ch.ID, guild.ID, set, reason)

	if class == ClassText {
		res.MemberOverride = r.verifyText(ctx, guild, ch.ID, reason)
	}
	return res, nil
}

func (r *Reconciler) lockThread(ctx context.Context, ch *discordgo.Channel, reason string) error {
	if ch.ThreadMetadata != nil && ch.ThreadMetadata.Locked {
		return ErrAlreadyLocked
	}
	if err := r.dir.SetThreadLocked(ctx, ch.ID, true, reason); err != nil {
		return fmt.Errorf("lock thread %s: %w", ch.ID, err)
	}
	everyone := denyBits(findOverwrite(ch, ch.GuildID), ch.GuildID, discordgo.PermissionOverwriteTypeRole, ThreadLockSet)
	if err := r.dir.EditOverwrite(ctx, ch.ID, everyone, reason); err != nil {
		logger.Debug(fmt.Sprintf("Hilo %s: overwrite no aplicado: %v", ch.ID, err), "Lock")
	}
	return nil
}

// sweep turns explicit allows that intersect set into denies on every
// overwrite except @everyone. Failures are logged and skipped.
func (r *Reconciler) sweep(ctx context.Context, channelID, everyoneID string, set int64, reason string) []string {
	ch, err := r.dir.Channel(ctx, channelID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo releer el canal %s para el barrido: %v", channelID, err), "Lock")
		return nil
	}

	var swept []string
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == everyoneID {
			continue
		}
		bits := ow.Allow & set
		if bits == 0 {
			continue
		}
		if err := r.dir.EditOverwrite(ctx, channelID, denyBits(ow, ow.ID, ow.Type, bits), reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo denegar el overwrite %s en %s: %v", ow.ID, channelID, err), "Lock")
			continue
		}
		swept = append(swept, ow.ID)
	}
	return swept
}

// verifyText re-reads the channel, re-applies the @everyone deny if send is
// still allowed, and checks one sampled member. It returns the member id
// that received its own deny, if any.
func (r *Reconciler) verifyText(ctx context.Context, guild *discordgo.Guild, channelID, reason string) string {
	ch, err := r.dir.Channel(ctx, channelID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo verificar el bloqueo de %s: %v", channelID, err), "Lock")
		return ""
	}

	if EveryonePermissions(guild, ch)&discordgo.PermissionSendMessages != 0 {
		logger.Warn(fmt.Sprintf("@everyone aún puede escribir en %s, reaplicando", channelID), "Lock")
		everyone := denyBits(findOverwrite(ch, guild.ID), guild.ID, discordgo.PermissionOverwriteTypeRole, TextLockSet)
		if err := r.dir.EditOverwrite(ctx, channelID, everyone, reason); err != nil {
			logger.Error(fmt.Sprintf("Reintento de bloqueo fallido en %s: %v", channelID, err), "Lock")
		} else {
			ch.PermissionOverwrites = replaceOverwrite(ch.PermissionOverwrites, everyone)
		}
	}

	member := r.sampleMember(ctx, guild)
	if member == nil {
		return ""
	}
	if EffectivePermissions(guild, ch, member, r.now())&discordgo.PermissionSendMessages == 0 {
		return ""
	}

	id := memberID(member)
	ow := denyBits(findOverwrite(ch, id), id, discordgo.PermissionOverwriteTypeMember, discordgo.PermissionSendMessages)
	if err := r.dir.EditOverwrite(ctx, channelID, ow, reason); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo denegar al miembro %s en %s: %v", id, channelID, err), "Lock")
		return ""
	}
	return id
}

// sampleMember picks the first cached member that is neither a bot nor an
// administrator
func (r *Reconciler) sampleMember(ctx context.Context, guild *discordgo.Guild) *discordgo.Member {
	members, err := r.dir.Members(ctx, guild.ID)
	if err != nil {
		return nil
	}
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}
		if IsAdministrator(guild, m) {
			continue
		}
		return m
	}
	return nil
}

// Unlock clears the lock capabilities on the @everyone overwrite only.
// Denials added by the lock sweep are left in place.
func (r *Reconciler) Unlock(ctx context.Context, channelID, reason string) (*LockResult, error) {
	ch, err := r.dir.Channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	class := ClassOf(ch)
	res := &LockResult{ChannelID: ch.ID, Class: class}

	if class == ClassThread {
		if ch.ThreadMetadata == nil || !ch.ThreadMetadata.Locked {
			return nil, ErrNotLocked
		}
		if err := r.dir.SetThreadLocked(ctx, ch.ID, false, reason); err != nil {
			return nil, fmt.Errorf("unlock thread %s: %w", ch.ID, err)
		}
		if existing := findOverwrite(ch, ch.GuildID); existing != nil {
			ow := clearBits(existing, ch.GuildID, discordgo.PermissionOverwriteTypeRole, ThreadLockSet)
			if err := r.dir.EditOverwrite(ctx, ch.ID, ow, reason); err != nil {
				logger.Debug(fmt.Sprintf("Hilo %s: overwrite no restaurado: %v", ch.ID, err), "Lock")
			}
		}
		return res, nil
	}

	set := LockSet(class)
	if set == 0 {
		return nil, ErrUnsupportedChannel
	}

	existing := findOverwrite(ch, ch.GuildID)
	if existing == nil || existing.Deny&set == 0 {
		return nil, ErrNotLocked
	}

	ow := clearBits(existing, ch.GuildID, discordgo.PermissionOverwriteTypeRole, set)
	if err := r.dir.EditOverwrite(ctx, ch.ID, ow, reason); err != nil {
		return nil, fmt.Errorf("unlock %s: %w", ch.ID, err)
	}
	logger.Info(fmt.Sprintf("Canal %s desbloqueado para @everyone", ch.ID), "Lock")
	return res, nil
}

// ApplyMuteRoleAcrossGuild denies the mute capabilities to roleID on every
// channel of the guild. Per-channel failures are logged and skipped.
func (r *Reconciler) ApplyMuteRoleAcrossGuild(ctx context.Context, guildID, roleID, reason string) error {
	channels, err := r.dir.Channels(ctx, guildID)
	if err != nil {
		return err
	}

	applied, failed := 0, 0
	for _, ch := range channels {
		if MuteSet(ClassOf(ch)) == 0 {
			continue
		}
		if err := r.ApplyMuteRoleToChannel(ctx, ch, roleID, reason); err != nil {
			failed++
			logger.Warn(fmt.Sprintf("No se pudo aplicar el rol mute en %s: %v", ch.ID, err), "SetupMute")
			continue
		}
		applied++
	}

	logger.Info(fmt.Sprintf("Rol mute %s aplicado en %d canales (%d fallidos) del servidor %s", roleID, applied, failed, guildID), "SetupMute")
	return nil
}

// ApplyMuteRoleToChannel denies the mute capabilities for ch's class to
// roleID. Threads and unsupported channels are a no-op.
func (r *Reconciler) ApplyMuteRoleToChannel(ctx context.Context, ch *discordgo.Channel, roleID, reason string) error {
	set := MuteSet(ClassOf(ch))
	if set == 0 || roleID == "" {
		return nil
	}
	ow := denyBits(findOverwrite(ch, roleID), roleID, discordgo.PermissionOverwriteTypeRole, set)
	return r.dir.EditOverwrite(ctx, ch.ID, ow, reason)
}

func replaceOverwrite(list []*discordgo.PermissionOverwrite, ow *discordgo.PermissionOverwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(list)+1)
	replaced := false
	for _, o := range list {
		if o.ID == ow.ID {
			out = append(out, ow)
			replaced = true
			continue
		}
		out = append(out, o)
	}
	if !replaced {
		out = append(out, ow)
	}
	return out
}
