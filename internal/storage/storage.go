// Package storage keeps per-guild bot state in the datastore.
package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/keshon/dispatch/datastore"
)

const commandHistoryLimit = 20

// CommandRecord is one executed command.
type CommandRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Source    string    `json:"source"` // "text" or "slash"
	Param     string    `json:"param,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

// Record is everything stored for one guild.
type Record struct {
	CommandsHistory  []CommandRecord `json:"cmd_history"`
	CommandsDisabled []string        `json:"cmd_disabled"`
}

type Storage struct {
	ds *datastore.DataStore
}

// New opens the store at filePath.
func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Storage{ds: ds}, nil
}

// NewWithDataStore wraps an already opened datastore.
func NewWithDataStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string {
	if guildID == "" {
		return "dm"
	}
	return "guild:" + guildID
}

func (s *Storage) record(guildID string) (Record, error) {
	var r Record
	if _, err := s.ds.Get(guildKey(guildID), &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *Storage) update(guildID string, fn func(r *Record) error) error {
	return datastore.Update(s.ds, guildKey(guildID), fn)
}

// AppendCommand adds rec to the guild's history, keeping the newest records.
func (s *Storage) AppendCommand(guildID string, rec CommandRecord) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, rec)
		if n := len(r.CommandsHistory); n > commandHistoryLimit {
			r.CommandsHistory = slices.Clone(r.CommandsHistory[n-commandHistoryLimit:])
		}
		return nil
	})
}

// CommandHistory returns the guild's history, oldest first.
func (s *Storage) CommandHistory(guildID string) ([]CommandRecord, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandsHistory, nil
}

func (s *Storage) DisableGroup(guildID, group string) error {
	return s.update(guildID, func(r *Record) error {
		if !slices.Contains(r.CommandsDisabled, group) {
			r.CommandsDisabled = append(r.CommandsDisabled, group)
		}
		return nil
	})
}

func (s *Storage) EnableGroup(guildID, group string) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsDisabled = slices.DeleteFunc(r.CommandsDisabled, func(g string) bool { return g == group })
		return nil
	})
}

func (s *Storage) IsGroupDisabled(guildID, group string) (bool, error) {
	r, err := s.record(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(r.CommandsDisabled, group), nil
}

func (s *Storage) DisabledGroups(guildID string) ([]string, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandsDisabled, nil
}

// Reset forgets everything stored for the guild. It reports whether there was
// anything to forget.
func (s *Storage) Reset(guildID string) (bool, error) {
	return s.ds.Delete(guildKey(guildID))
}
