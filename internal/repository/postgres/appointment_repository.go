package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statuses that hold a slot in the doctor's calendar.
var activeStatuses = []appointment.AppointmentStatus{appointment.StatusScheduled, appointment.StatusConfirmed}

type AppointmentRepository struct {
	db *gorm.DB
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("creating appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, appointment.ErrAppointmentNotFound)
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	query := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.PatientID != nil {
		query = query.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		query = query.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		query = query.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("scheduled_at < ?", *q.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var items []*appointment.Appointment
	err := query.
		Order("scheduled_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	pages := 0
	if q.PageSize > 0 {
		pages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   pages,
	}, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return affected(r.db.WithContext(ctx).
		Model(a).
		Select("status", "cancelled_at", "cancellation_reason", "cancelled_by", "completed_at").
		Updates(a), "updating appointment status", appointment.ErrAppointmentNotFound)
}

func (r *AppointmentRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("doctor_id = ? AND status IN ?", doctorID, activeStatuses).
		Where("scheduled_at < ? AND scheduled_at + make_interval(mins => duration_mins) > ?", end, start).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking appointment conflicts: %w", err)
	}
	return n > 0, nil
}

func (r *AppointmentRepository) Upcoming(ctx context.Context, participantID uuid.UUID, from time.Time, limit int) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("(patient_id = ? OR doctor_id = ?) AND scheduled_at >= ? AND status IN ?",
			participantID, participantID, from, activeStatuses).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing upcoming appointments: %w", err)
	}
	return items, nil
}
