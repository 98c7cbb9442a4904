package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"slices"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type messageRecord struct {
	ID   string `json:"id"`
	Seq  int64  `json:"seq"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toMessageRecord(m domain.Message) messageRecord {
	return messageRecord{
		ID:   m.ID,
		Seq:  m.Seq,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func (r messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:   r.ID,
		Seq:  r.Seq,
		From: r.From,
		To:   r.To,
		Text: r.Text,
		Type: domain.MessageType(r.Type),
		Time: r.Time,
	}
}

type MessageRepository struct {
	d *DB
}

func NewMessageRepository(d *DB) *MessageRepository {
	return &MessageRepository{d: d}
}

func (r *MessageRepository) Append(ctx context.Context, m *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := r.d.seq.Next()
	if err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Seq = int64(next)

	return r.d.update(func(txn *badger.Txn) error {
		if err := setJSON(txn, r.d.messageKey(m.Seq), toMessageRecord(*m)); err != nil {
			return err
		}
		return txn.Set(r.d.messageIDKey(m.ID), encodeSeq(m.Seq))
	})
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec messageRecord
	err := r.d.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = r.lookup(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	m := rec.toDomain()
	return &m, nil
}

// ListVisible walks the ledger newest first and stops once limit visible
// messages are collected.
func (r *MessageRepository) ListVisible(ctx context.Context, viewer, broadcast string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, 64)
	err := r.d.db.View(func(txn *badger.Txn) error {
		prefix := r.d.messagePrefix()
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append(slices.Clone(prefix), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			var rec messageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if m := rec.toDomain(); m.VisibleTo(viewer, broadcast) {
				out = append(out, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(out)
	return out, nil
}

func (r *MessageRepository) Update(ctx context.Context, m *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.d.update(func(txn *badger.Txn) error {
		rec, err := r.lookup(txn, m.ID)
		if err != nil {
			return err
		}
		if rec.From != m.From {
			return repository.ErrNotFound
		}
		rec.To, rec.Text, rec.Type = m.To, m.Text, string(m.Type)
		return setJSON(txn, r.d.messageKey(rec.Seq), rec)
	})
}

func (r *MessageRepository) Delete(ctx context.Context, id, from string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.d.update(func(txn *badger.Txn) error {
		rec, err := r.lookup(txn, id)
		if err != nil {
			return err
		}
		if rec.From != from {
			return repository.ErrNotFound
		}
		if err := txn.Delete(r.d.messageKey(rec.Seq)); err != nil {
			return err
		}
		return txn.Delete(r.d.messageIDKey(id))
	})
}

func (r *MessageRepository) lookup(txn *badger.Txn, id string) (messageRecord, error) {
	item, err := txn.Get(r.d.messageIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return messageRecord{}, repository.ErrNotFound
	}
	if err != nil {
		return messageRecord{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return messageRecord{}, err
	}
	var rec messageRecord
	if err := getJSON(txn, r.d.messageKey(decodeSeq(raw)), &rec); err != nil {
		return messageRecord{}, err
	}
	return rec, nil
}

func encodeSeq(seq int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(seq))
	return b
}

func decodeSeq(b []byte) int64 {
	if len(b) != 8 {
		return -1
	}
	return int64(binary.BigEndian.Uint64(b))
}
