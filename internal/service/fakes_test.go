package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// memProfiles is an in-memory profile.Repository. Transaction works on a
// copy of the state and only publishes it when fn succeeds.
type memProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
	patients map[uuid.UUID]profile.PatientRecord
	doctors  map[uuid.UUID]profile.DoctorRecord
	failOn   map[string]error
}

var _ profile.Repository = (*memProfiles)(nil)

func newMemProfiles() *memProfiles {
	return &memProfiles{
		profiles: map[uuid.UUID]profile.Profile{},
		patients: map[uuid.UUID]profile.PatientRecord{},
		doctors:  map[uuid.UUID]profile.DoctorRecord{},
		failOn:   map[string]error{},
	}
}

func (m *memProfiles) fail(op string) error {
	return m.failOn[op]
}

func (m *memProfiles) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &p, nil
}

func (m *memProfiles) UpsertProfile(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpsertProfile"); err != nil {
		return err
	}
	cur, ok := m.profiles[p.ID]
	if !ok {
		m.profiles[p.ID] = *p
		return nil
	}
	cur.Email, cur.FullName, cur.Role = p.Email, p.FullName, p.Role
	m.profiles[p.ID] = cur
	return nil
}

func (m *memProfiles) SaveProfile(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveProfile"); err != nil {
		return err
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *memProfiles) GetPatient(_ context.Context, id uuid.UUID) (*profile.PatientRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.patients[id]
	if !ok {
		return nil, profile.ErrPatientNotFound
	}
	return &r, nil
}

func (m *memProfiles) GetDoctor(_ context.Context, id uuid.UUID) (*profile.DoctorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.doctors[id]
	if !ok {
		return nil, profile.ErrDoctorNotFound
	}
	return &r, nil
}

func (m *memProfiles) EnsurePatient(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("EnsurePatient"); err != nil {
		return err
	}
	if _, ok := m.patients[id]; !ok {
		m.patients[id] = profile.PatientRecord{ID: id}
	}
	return nil
}

func (m *memProfiles) EnsureDoctor(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("EnsureDoctor"); err != nil {
		return err
	}
	if _, ok := m.doctors[id]; !ok {
		m.doctors[id] = profile.DoctorRecord{ID: id}
	}
	return nil
}

func (m *memProfiles) DeletePatient(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeletePatient"); err != nil {
		return err
	}
	delete(m.patients, id)
	return nil
}

func (m *memProfiles) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteDoctor"); err != nil {
		return err
	}
	delete(m.doctors, id)
	return nil
}

func (m *memProfiles) SavePatient(_ context.Context, r *profile.PatientRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SavePatient"); err != nil {
		return err
	}
	m.patients[r.ID] = *r
	return nil
}

func (m *memProfiles) SaveDoctor(_ context.Context, r *profile.DoctorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveDoctor"); err != nil {
		return err
	}
	m.doctors[r.ID] = *r
	return nil
}

func (m *memProfiles) ListPatients(_ context.Context, limit int) ([]*profile.PatientSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*profile.PatientSummary
	for id, p := range m.profiles {
		if p.Role != domain.RolePatient {
			continue
		}
		s := &profile.PatientSummary{ID: id, FullName: p.FullName, Email: p.Email}
		if r, ok := m.patients[id]; ok {
			s.DateOfBirth = r.DateOfBirth
			s.BloodType = string(r.BloodType)
			s.Conditions = r.Conditions
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *profile.PatientSummary) int {
		switch {
		case a.FullName < b.FullName:
			return -1
		case a.FullName > b.FullName:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProfiles) Transaction(ctx context.Context, fn func(profile.Repository) error) error {
	m.mu.Lock()
	tx := &memProfiles{
		profiles: maps.Clone(m.profiles),
		patients: maps.Clone(m.patients),
		doctors:  maps.Clone(m.doctors),
		failOn:   m.failOn,
	}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.profiles, m.patients, m.doctors = tx.profiles, tx.patients, tx.doctors
	m.mu.Unlock()
	return nil
}

func (m *memProfiles) hasPatient(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.patients[id]
	return ok
}

func (m *memProfiles) hasDoctor(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.doctors[id]
	return ok
}

type memIdentities struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]domain.Identity
	updateErr error
}

func newMemIdentities(ids ...domain.Identity) *memIdentities {
	m := &memIdentities{byID: map[uuid.UUID]domain.Identity{}}
	for _, id := range ids {
		m.byID[id.ID] = id
	}
	return m
}

func (m *memIdentities) GetIdentity(_ context.Context, id uuid.UUID) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.byID[id]
	if !ok {
		return nil, identity.ErrIdentityNotFound
	}
	return &ident, nil
}

func (m *memIdentities) UpdateMetadata(_ context.Context, id uuid.UUID, md domain.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	ident, ok := m.byID[id]
	if !ok {
		return identity.ErrIdentityNotFound
	}
	ident.Metadata = md
	m.byID[id] = ident
	return nil
}

func (m *memIdentities) role(id uuid.UUID) domain.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Metadata.Role
}

type memRoleCache struct {
	mu     sync.Mutex
	roles  map[uuid.UUID]domain.Role
	sets   int
	getErr error
	setErr error
}

func newMemRoleCache() *memRoleCache {
	return &memRoleCache{roles: map[uuid.UUID]domain.Role{}}
}

func (c *memRoleCache) Get(_ context.Context, id uuid.UUID) (domain.Role, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	r, ok := c.roles[id]
	return r, ok, nil
}

func (c *memRoleCache) Set(_ context.Context, id uuid.UUID, role domain.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.roles[id] = role
	c.sets++
	return nil
}

func (c *memRoleCache) Fill(_ context.Context, id uuid.UUID, role domain.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[id]; !ok {
		c.roles[id] = role
	}
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (r *memAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *memAuditRepo) all() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// newTestAudit returns an audit service whose entries can be read once
// flush has drained the worker.
func newTestAudit(t *testing.T) (*AuditService, *memAuditRepo, func()) {
	t.Helper()
	repo := &memAuditRepo{}
	svc := newAuditService(repo, nil, zap.NewNop(), 100)
	var once sync.Once
	flush := func() { once.Do(svc.Shutdown) }
	t.Cleanup(flush)
	return svc, repo, flush
}

func newTestMetrics() *metrics.Collector {
	return metrics.NewCollector("healthbuddy_test", prometheus.NewRegistry())
}

func claimsFor(id uuid.UUID) *domain.Claims {
	return &domain.Claims{IdentityID: id, SessionID: "sess-" + id.String()[:8], Email: "user@example.com"}
}

type memSettings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]settings.Settings
	err  error
}

func newMemSettings() *memSettings {
	return &memSettings{byID: map[uuid.UUID]settings.Settings{}}
}

func (m *memSettings) Get(_ context.Context, id uuid.UUID) (*settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	st, ok := m.byID[id]
	if !ok {
		return nil, settings.ErrSettingsNotFound
	}
	return &st, nil
}

func (m *memSettings) Upsert(_ context.Context, st *settings.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.byID[st.UserID] = *st
	return nil
}

type memReports struct {
	mu      sync.Mutex
	reports []*report.Report
	err     error
}

func (m *memReports) Create(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r.ID = uuid.New()
	m.reports = append(m.reports, r)
	return nil
}

func (m *memReports) GetByID(_ context.Context, id uuid.UUID) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, report.ErrReportNotFound
}

func (m *memReports) ListRecent(_ context.Context, patientID uuid.UUID, limit int) ([]*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*report.Report
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		if m.reports[i].PatientID == patientID {
			out = append(out, m.reports[i])
		}
	}
	return out, nil
}

type memChats struct {
	mu       sync.Mutex
	messages []*chat.Message
	saveErr  error
}

func (m *memChats) Save(_ context.Context, msg *chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memChats) History(_ context.Context, userID uuid.UUID, sessionID string, limit int) ([]*chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*chat.Message
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memPrescriptions struct {
	mu    sync.Mutex
	items map[uuid.UUID]*prescription.Prescription
}

func newMemPrescriptions(items ...*prescription.Prescription) *memPrescriptions {
	m := &memPrescriptions{items: map[uuid.UUID]*prescription.Prescription{}}
	for _, p := range items {
		m.items[p.ID] = p
	}
	return m
}

func (m *memPrescriptions) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPrescriptions) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*prescription.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*prescription.View
	for _, p := range m.items {
		if p.PatientID == patientID {
			out = append(out, &prescription.View{Prescription: *p, DoctorName: "Dr. House"})
		}
	}
	return out, nil
}

func (m *memPrescriptions) SaveRefill(_ context.Context, p *prescription.Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

type memAppointments struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*appointment.Appointment
	conflict bool
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: map[uuid.UUID]*appointment.Appointment{}}
}

func (m *memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &appointment.PagedAppointments{Page: q.Page, PageSize: q.PageSize}
	for _, a := range m.items {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
			continue
		}
		cp := *a
		out.Appointments = append(out.Appointments, &cp)
	}
	out.TotalCount = int64(len(out.Appointments))
	return out, nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAppointments) HasConflict(context.Context, uuid.UUID, time.Time, time.Time) (bool, error) {
	return m.conflict, nil
}

func (m *memAppointments) Upcoming(_ context.Context, participantID uuid.UUID, from time.Time, limit int) ([]*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range m.items {
		if a.IsParticipant(participantID) && a.ScheduledAt.After(from) && len(out) < limit {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type sentNotification struct {
	userID uuid.UUID
	kind   notification.Kind
	title  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind notification.Kind, title, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, kind: kind, title: title})
}
