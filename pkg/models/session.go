package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	Key       string    `bun:",pk" json:"key"`
	Data      string    `bun:",notnull" json:"-"`
	ExpiresAt time.Time `bun:",notnull" json:"expires_at"`
}
