package req

import (
	"encoding/json"
	"io"
)

// Decode читает JSON тело запроса в структуру T
func Decode[T any](body io.ReadCloser) (T, error) {
	defer body.Close()

	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}
