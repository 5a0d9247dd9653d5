// Package telemetry хранит последний известный снимок состояния робота.
package telemetry

import (
	"sync"
	"time"

	"github.com/iwtcode/robotAdapter/models"
)

// Store - потокобезопасное хранилище снимка телеметрии.
// Каждое поле заменяется целиком: читатель никогда не видит частично записанный массив углов.
type Store struct {
	mu   sync.RWMutex
	snap models.Snapshot
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) touch() {
	s.snap.Version++
	s.snap.UpdatedAt = s.now()
}

// SetJoints заменяет углы осей.
func (s *Store) SetJoints(j models.JointPositions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Joints = j
	s.touch()
}

// SetPose заменяет позу инструмента.
func (s *Store) SetPose(p models.ToolPose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Pose = p
	s.touch()
}

// SetStatus заменяет флаги состояния.
func (s *Store) SetStatus(st models.RobotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = st
	s.touch()
}

// UpdateStatus изменяет сохраненный статус под блокировкой хранилища.
func (s *Store) UpdateStatus(fn func(*models.RobotStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap.Status)
	s.touch()
}

func (s *Store) Joints() models.JointPositions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Joints
}

// JointsDegrees возвращает углы осей в градусах.
func (s *Store) JointsDegrees() models.JointPositions {
	return s.Joints().Degrees()
}

func (s *Store) Pose() models.ToolPose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Pose
}

func (s *Store) Status() models.RobotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Status
}

// Snapshot возвращает согласованную копию всех полей.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Version возвращает число записей с момента создания.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version
}
