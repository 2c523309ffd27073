package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gravizot/internal/model"
)

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Insert(ctx context.Context, msg model.ContactMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contact_messages (id, topic, email, message, ip, ua, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Topic, msg.Email, msg.Message, msg.IP, msg.UserAgent, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}
