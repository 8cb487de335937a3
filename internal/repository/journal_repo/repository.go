package journal_repo

import (
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const prefix = "wager/"

// Журнал ставок в badger. Запись появляется при приёме ставки
// и удаляется, когда ставка рассчитана. Всё, что осталось после
// рестарта, подлежит возврату
type journal struct {
	db *badger.DB
}

// NewJournalRepository - открывает журнал в каталоге dir.
// Пустой dir означает журнал в памяти
func NewJournalRepository(dir string) (repository.JournalRepository, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open wager journal: %w", err)
	}
	return &journal{db: db}, nil
}

func key(wagerID string) ([]byte, error) {
	if wagerID == "" {
		return nil, errors.New("wager id is empty")
	}
	return []byte(prefix + wagerID), nil
}

func (j *journal) Put(w *model.Wager) error {
	k, err := key(w.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(w)
	if err != nil {
		return err
	}

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, data)
	})
}

// Delete - удаление отсутствующей записи не ошибка
func (j *journal) Delete(wagerID string) error {
	k, err := key(wagerID)
	if err != nil {
		return err
	}

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

func (j *journal) List() ([]model.Wager, error) {
	result := make([]model.Wager, 0)
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var w model.Wager
			if err = json.Unmarshal(val, &w); err != nil {
				return fmt.Errorf("decode journal entry %s: %w", item.Key(), err)
			}
			result = append(result, w)
		}
		return nil
	})
	return result, err
}

func (j *journal) Close() error {
	return j.db.Close()
}
