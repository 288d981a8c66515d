package models

import (
	"fmt"
	"time"
)

// Stage is the index of the highest filled slot of a booking's
// fulfillment list. StageNone means no slot has been written yet.
type Stage int

const (
	StageNone Stage = iota - 1
	StageAssigned
	StagePlanning
	StageMaterials
	StageOnTheWay
	StageSetup
	StageCompleted
)

var stageLabels = [StageSlots]string{
	StageAssigned:  "Decorator Assigned",
	StagePlanning:  "Planning Phase",
	StageMaterials: "Materials Prepared",
	StageOnTheWay:  "On the Way to Venue",
	StageSetup:     "Setup in Progress",
	StageCompleted: "Completed",
}

// stageByCode maps client update codes to the slot they fill.
var stageByCode = map[int]Stage{
	2: StagePlanning,
	3: StageMaterials,
	4: StageOnTheWay,
	5: StageSetup,
	6: StageCompleted,
}

// stageTransitions lists the single stage each stage may move to.
var stageTransitions = map[Stage]Stage{
	StageNone:      StageAssigned,
	StageAssigned:  StagePlanning,
	StagePlanning:  StageMaterials,
	StageMaterials: StageOnTheWay,
	StageOnTheWay:  StageSetup,
	StageSetup:     StageCompleted,
}

func (s Stage) Valid() bool {
	return s >= StageAssigned && s <= StageCompleted
}

func (s Stage) Label() string {
	if !s.Valid() {
		return ""
	}
	return stageLabels[s]
}

func (s Stage) Terminal() bool {
	return s == StageCompleted
}

func (s Stage) String() string {
	if s == StageNone {
		return "none"
	}
	if !s.Valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return s.Label()
}

// StageForCode resolves an update code (2..6) to its slot.
func StageForCode(code int) (Stage, bool) {
	s, ok := stageByCode[code]
	return s, ok
}

// CanAdvance reports whether a booking at stage from may move to stage to.
func CanAdvance(from, to Stage) bool {
	next, ok := stageTransitions[from]
	return ok && next == to
}

type StageEntry struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// StageList is the six-slot fulfillment list. Unset slots encode as null.
type StageList [StageSlots]*StageEntry

// Current returns the highest filled slot, or StageNone.
func (l StageList) Current() Stage {
	current := StageNone
	for i, entry := range l {
		if entry == nil {
			break
		}
		current = Stage(i)
	}
	return current
}

// Set fills slot s. It fails unless s is the next slot in order.
func (l *StageList) Set(s Stage, at time.Time) error {
	if !CanAdvance(l.Current(), s) {
		return fmt.Errorf("cannot move from %s to %s", l.Current(), s)
	}
	l[s] = &StageEntry{Status: s.Label(), Time: at}
	return nil
}
