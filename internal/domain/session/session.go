// Package session tracks demo role switches and document-number access
// sessions. Every change is written to the audit trail.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
)

var (
	ErrNoResults       = errors.New("no results for document number")
	ErrSessionNotFound = errors.New("session not found")
)

// NoResultsMessage is shown to a patient whose document number matches no
// lab profile.
const NoResultsMessage = "No hay resultados para esta cédula."

// Session is a patient entry by document number.
type Session struct {
	ID             string    `json:"id"`
	DocumentNumber string    `json:"document_number"`
	PatientID      string    `json:"patient_id"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	StartedAt      time.Time `json:"started_at"`
}

// Actor is the audit actor for the session's patient.
func (s *Session) Actor() string {
	return "patient:" + s.DocumentNumber
}

type Manager struct {
	mu       sync.RWMutex
	roles    map[string]string
	sessions map[string]*Session
	profiles *identity.Directory
	audit    *audit.Recorder
	now      func() time.Time
}

func NewManager(profiles *identity.Directory, recorder *audit.Recorder, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		roles:    make(map[string]string),
		sessions: make(map[string]*Session),
		profiles: profiles,
		audit:    recorder,
		now:      now,
	}
}

// Role returns the last role actor switched to. Actors start as patients.
func (m *Manager) Role(actor string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roleLocked(actor)
}

func (m *Manager) roleLocked(actor string) string {
	if r, ok := m.roles[actor]; ok {
		return r
	}
	return auth.RolePatient
}

// SetRole switches actor to role and returns the previous role.
func (m *Manager) SetRole(actor, role string) (string, error) {
	if !auth.ValidRole(role) {
		return "", fmt.Errorf("unknown role: %s", role)
	}
	m.mu.Lock()
	prev := m.roleLocked(actor)
	m.roles[actor] = role
	m.mu.Unlock()

	m.audit.Record(audit.RoleChanged, actor, fmt.Sprintf("Role cambiado de %s a %s", prev, role))
	return prev, nil
}

// StartPatientSession opens a patient session for a lab patient found by
// document number. The demo actor is switched to the patient role.
func (m *Manager) StartPatientSession(_ context.Context, documentNumber string) (*Session, error) {
	id := identity.New(documentNumber, "")
	if id.Empty() {
		return nil, ErrNoResults
	}
	resolved, profile, ok := m.profiles.Resolve(identity.Laboratorio, id)
	if !ok {
		return nil, ErrNoResults
	}
	s := &Session{
		ID:             uuid.New().String(),
		DocumentNumber: resolved.Key(),
		PatientID:      resolved.InternalID,
		FullName:       profile.FullName,
		Role:           auth.RolePatient,
		StartedAt:      m.now().UTC(),
	}

	m.mu.Lock()
	prev := m.roleLocked(auth.DefaultActor)
	m.roles[auth.DefaultActor] = auth.RolePatient
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.audit.Record(audit.RoleChanged, auth.DefaultActor, fmt.Sprintf("Role cambiado de %s a %s", prev, auth.RolePatient))
	out := *s
	return &out, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	out := *s
	return &out, true
}

// End closes a patient session.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.audit.Record(audit.RoleChanged, auth.DefaultActor, "Sesion demo por documento finalizada")
	return nil
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
