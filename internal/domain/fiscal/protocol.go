package fiscal

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

func newEntityID() string {
	return uuid.New().String()
}

// newProtocol gera um protocolo numérico de 15 dígitos no formato usado pela
// SEFAZ (este motor não transmite; o protocolo identifica o registro local).
func newProtocol() string {
	return fmt.Sprintf("135%08d%04d", time.Now().Unix()%100000000, rand.Intn(10000))
}
