package scheduling

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Saver {
	return &repoPG{pool: pool}
}

const apptCols = `id, patient_id, doctor_id, service_id, window_start, window_end,
	status, appt_type, notes, created_at, updated_at`

func (r *repoPG) Save(ctx context.Context, a *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment (
			id, patient_id, doctor_id, service_id, window_start, window_end,
			status, appt_type, notes, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			patient_id=$2, doctor_id=$3, service_id=$4, window_start=$5, window_end=$6,
			status=$7, appt_type=$8, notes=$9, updated_at=$11`,
		a.ID, a.PatientID, a.DoctorID, a.ServiceID, a.Window.Start, a.Window.End,
		a.Status, a.Type, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// History is append-only in memory; the cheap durable form is
	// delete-and-reinsert inside the same transaction.
	if _, err := tx.Exec(ctx, `DELETE FROM appointment_history WHERE appointment_id = $1`, a.ID); err != nil {
		return err
	}
	for i, h := range a.History {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_history (appointment_id, seq, status, at, actor)
			VALUES ($1,$2,$3,$4,$5)`,
			a.ID, i, h.Status, h.At, h.Actor,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	return err
}

func (r *repoPG) LoadAll(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointment ORDER BY window_start`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	byID := map[string]int{}
	for rows.Next() {
		var a Appointment
		err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.ServiceID, &a.Window.Start, &a.Window.End,
			&a.Status, &a.Type, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		byID[a.ID.String()] = len(appts)
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hrows, err := r.pool.Query(ctx, `
		SELECT appointment_id, status, at, actor
		FROM appointment_history ORDER BY appointment_id, seq`)
	if err != nil {
		return nil, err
	}
	defer hrows.Close()

	for hrows.Next() {
		var apptID string
		var h HistoryEntry
		if err := hrows.Scan(&apptID, &h.Status, &h.At, &h.Actor); err != nil {
			return nil, err
		}
		if i, ok := byID[apptID]; ok {
			appts[i].History = append(appts[i].History, h)
		}
	}
	return appts, hrows.Err()
}
