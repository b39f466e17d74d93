// Package models holds the domain records shared by repositories and
// services.
package models

import (
	"sort"
	"time"
)

// User is an attendee. Email is the unique key; Visits holds each stall at
// most once.
type User struct {
	Name         string
	Email        string
	PasswordHash string
	Visits       map[int]struct{}
	CreatedAt    time.Time
}

// VisitCount is the number of distinct stalls the user has visited.
func (u *User) VisitCount() int {
	return len(u.Visits)
}

// VisitedStalls returns the visited stall IDs in ascending order.
func (u *User) VisitedStalls() []int {
	stalls := make([]int, 0, len(u.Visits))
	for id := range u.Visits {
		stalls = append(stalls, id)
	}
	sort.Ints(stalls)
	return stalls
}

// Clone returns a deep copy, so callers outside a repository never share
// the visits map with it.
func (u *User) Clone() *User {
	c := *u
	c.Visits = make(map[int]struct{}, len(u.Visits))
	for id := range u.Visits {
		c.Visits[id] = struct{}{}
	}
	return &c
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
