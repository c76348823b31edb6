package models

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Warning is one entry of users[].warnings
type Warning struct {
	Reason    string    `bson:"reason" json:"reason"`
	Moderator string    `bson:"moderator" json:"moderator"`
	Date      time.Time `bson:"date" json:"date"`
}

// UserRecord holds the moderation state of one member
type UserRecord struct {
	UserID     string     `bson:"userId" json:"userId"`
	Warnings   []Warning  `bson:"warnings" json:"warnings"`
	Muted      bool       `bson:"muted" json:"muted"`
	MutedUntil *time.Time `bson:"mutedUntil" json:"mutedUntil"`
}

// Permanent reports a mute without expiry
func (u *UserRecord) Permanent() bool {
	return u.Muted && u.MutedUntil == nil
}

func (u *UserRecord) clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	if u.Warnings != nil {
		c.Warnings = append([]Warning(nil), u.Warnings...)
	}
	if u.MutedUntil != nil {
		t := *u.MutedUntil
		c.MutedUntil = &t
	}
	return &c
}

// UserRecords is keyed by user id in memory and stored as the "users" array.
// Decoding keeps the first entry for a duplicated userId.
type UserRecords map[string]*UserRecord

// Get returns the record for userID, or nil
func (r UserRecords) Get(userID string) *UserRecord {
	if r == nil {
		return nil
	}
	return r[userID]
}

// Ensure returns the record for userID, creating it if needed
func (r UserRecords) Ensure(userID string) *UserRecord {
	if u, ok := r[userID]; ok {
		return u
	}
	u := &UserRecord{UserID: userID, Warnings: []Warning{}}
	r[userID] = u
	return u
}

// Sorted returns the records ordered by user id
func (r UserRecords) Sorted() []*UserRecord {
	out := make([]*UserRecord, 0, len(r))
	for _, u := range r {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (r UserRecords) list() []UserRecord {
	out := make([]UserRecord, 0, len(r))
	for _, u := range r.Sorted() {
		rec := *u
		if rec.Warnings == nil {
			rec.Warnings = []Warning{}
		}
		out = append(out, rec)
	}
	return out
}

func (r *UserRecords) fromList(list []UserRecord) {
	m := make(UserRecords, len(list))
	for i := range list {
		u := list[i]
		if u.UserID == "" {
			continue
		}
		if _, dup := m[u.UserID]; dup {
			continue
		}
		if u.Warnings == nil {
			u.Warnings = []Warning{}
		}
		m[u.UserID] = &u
	}
	*r = m
}

// MarshalBSONValue stores the map as an array of records
func (r UserRecords) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.list())
}

// UnmarshalBSONValue reads the stored array
func (r *UserRecords) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*r = UserRecords{}
		return nil
	}
	var list []UserRecord
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&list); err != nil {
		return err
	}
	r.fromList(list)
	return nil
}

// MarshalJSON keeps the JSON view in the same array shape as storage
func (r UserRecords) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.list())
}

// UnmarshalJSON reads the array shape
func (r *UserRecords) UnmarshalJSON(data []byte) error {
	var list []UserRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	r.fromList(list)
	return nil
}

// MuteState is the mute part of a UserPatch
type MuteState struct {
	Muted bool
	Until *time.Time
}

// UserPatch describes a partial update of one UserRecord
type UserPatch struct {
	Mute       *MuteState
	Warnings   []Warning // replaces the list when non-nil
	AddWarning *Warning
}

// Apply mutates u according to the patch
func (p UserPatch) Apply(u *UserRecord) {
	if p.Mute != nil {
		u.Muted = p.Mute.Muted
		u.MutedUntil = nil
		if p.Mute.Muted && p.Mute.Until != nil {
			t := *p.Mute.Until
			u.MutedUntil = &t
		}
	}
	if p.Warnings != nil {
		u.Warnings = append([]Warning{}, p.Warnings...)
	}
	if p.AddWarning != nil {
		u.Warnings = append(u.Warnings, *p.AddWarning)
	}
	if u.Warnings == nil {
		u.Warnings = []Warning{}
	}
}

// Unmuted is the patch applied by every unmute path
func Unmuted() UserPatch {
	return UserPatch{Mute: &MuteState{Muted: false}}
}

// MutedUntil is the patch applied by a mute; until nil means permanent
func MutedUntil(until *time.Time) UserPatch {
	return UserPatch{Mute: &MuteState{Muted: true, Until: until}}
}
