// Package permission computes effective channel permissions from base role
// permissions and per-channel overwrites.
package permission

import "github.com/bwmarrin/discordgo"

// All is the bitmask granted to administrators.
const All int64 = discordgo.PermissionAll

// OverwriteType tells whether an overwrite targets a role or a single member.
type OverwriteType int

const (
	OverwriteRole OverwriteType = iota
	OverwriteMember
)

// Overwrite is a per-channel allow/deny adjustment for one role or member.
type Overwrite struct {
	ID    string
	Type  OverwriteType
	Allow int64
	Deny  int64
}

// FromDiscord converts platform overwrites, keeping the last entry per subject.
func FromDiscord(in []*discordgo.PermissionOverwrite) []Overwrite {
	out := make([]Overwrite, 0, len(in))
	index := make(map[string]int, len(in))
	for _, o := range in {
		if o == nil {
			continue
		}
		ow := Overwrite{ID: o.ID, Allow: o.Allow, Deny: o.Deny}
		if o.Type == discordgo.PermissionOverwriteTypeMember {
			ow.Type = OverwriteMember
		}
		if i, ok := index[o.ID]; ok {
			out[i] = ow
			continue
		}
		index[o.ID] = len(out)
		out = append(out, ow)
	}
	return out
}

// Base unions the @everyone permissions with the permissions of every held role.
func Base(everyone int64, rolePerms ...int64) int64 {
	perms := sanitize(everyone)
	for _, p := range rolePerms {
		perms |= sanitize(p)
	}
	return perms
}

// Resolve applies channel overwrites on top of base permissions.
//
// Precedence, lowest to highest: base, the @everyone overwrite (a role overwrite
// whose ID is everyoneID, usually the guild ID), the union of overwrites for
// roles in roleIDs, then the member overwrite for subjectID. Role overwrites
// are merged before being applied, so their order does not matter. A base that
// includes Administrator resolves to All without looking at overwrites.
func Resolve(base int64, overwrites []Overwrite, everyoneID, subjectID string, roleIDs []string) int64 {
	perms := sanitize(base)
	if perms&discordgo.PermissionAdministrator != 0 {
		return All
	}

	held := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		held[id] = struct{}{}
	}

	var (
		everyone            *Overwrite
		member              *Overwrite
		roleAllow, roleDeny int64
	)
	for i := range overwrites {
		o := &overwrites[i]
		switch o.Type {
		case OverwriteMember:
			if o.ID == subjectID {
				member = o
			}
		case OverwriteRole:
			if o.ID == everyoneID {
				everyone = o
				continue
			}
			if _, ok := held[o.ID]; ok {
				roleAllow |= sanitize(o.Allow)
				roleDeny |= sanitize(o.Deny)
			}
		}
	}

	if everyone != nil {
		perms = apply(perms, everyone.Allow, everyone.Deny)
	}
	perms = apply(perms, roleAllow, roleDeny)
	if member != nil {
		perms = apply(perms, member.Allow, member.Deny)
	}
	return perms
}

func apply(perms, allow, deny int64) int64 {
	return (perms &^ sanitize(deny)) | sanitize(allow)
}

// sanitize treats malformed (negative) bitmasks as empty.
func sanitize(bits int64) int64 {
	if bits < 0 {
		return 0
	}
	return bits
}
