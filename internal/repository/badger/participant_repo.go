package badger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type participantRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastStatus int64  `json:"last_status"` // unix nanos
}

func toParticipantRecord(p domain.Participant) participantRecord {
	return participantRecord{ID: p.ID, Name: p.Name, LastStatus: p.LastStatus.UnixNano()}
}

func (r participantRecord) toDomain() domain.Participant {
	return domain.Participant{ID: r.ID, Name: r.Name, LastStatus: time.Unix(0, r.LastStatus).UTC()}
}

type ParticipantRepository struct {
	d *DB
}

func NewParticipantRepository(d *DB) *ParticipantRepository {
	return &ParticipantRepository{d: d}
}

// Create checks and writes the name key inside one serializable transaction.
func (r *ParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	data, err := json.Marshal(toParticipantRecord(*p))
	if err != nil {
		return err
	}
	return r.d.update(func(txn *badger.Txn) error {
		key := r.d.participantKey(p.Name)
		if _, err := txn.Get(key); err == nil {
			return repository.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(r.d.participantIDKey(p.ID), []byte(p.Name))
	})
}

func (r *ParticipantRepository) GetByName(ctx context.Context, name string) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec participantRecord
	err := r.d.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, r.d.participantKey(name), &rec)
	})
	if err != nil {
		return nil, err
	}
	p := rec.toDomain()
	return &p, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	return r.scan(ctx, func(domain.Participant) bool { return true })
}

func (r *ParticipantRepository) Touch(ctx context.Context, name string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.d.update(func(txn *badger.Txn) error {
		key := r.d.participantKey(name)
		var rec participantRecord
		if err := getJSON(txn, key, &rec); err != nil {
			return err
		}
		if at.UnixNano() <= rec.LastStatus {
			return nil
		}
		rec.LastStatus = at.UnixNano()
		return setJSON(txn, key, rec)
	})
}

func (r *ParticipantRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Participant, error) {
	return r.scan(ctx, func(p domain.Participant) bool { return p.IsStale(cutoff) })
}

func (r *ParticipantRepository) DeleteIfStale(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deleted := false
	err := r.d.update(func(txn *badger.Txn) error {
		deleted = false
		idKey := r.d.participantIDKey(id)
		item, err := txn.Get(idKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		name, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		key := r.d.participantKey(string(name))
		var rec participantRecord
		if err := getJSON(txn, key, &rec); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		if !rec.toDomain().IsStale(cutoff) {
			return nil
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		deleted = true
		return txn.Delete(idKey)
	})
	return deleted, err
}

func (r *ParticipantRepository) scan(ctx context.Context, keep func(domain.Participant) bool) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Participant, 0, 16)
	err := r.d.db.View(func(txn *badger.Txn) error {
		prefix := r.d.participantPrefix()
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec participantRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if p := rec.toDomain(); keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}
