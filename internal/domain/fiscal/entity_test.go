package fiscal

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeries(t *testing.T) {
	assert.NoError(t, ValidateSeries(1))
	assert.NoError(t, ValidateSeries(999))

	for _, series := range []int{0, -1, 1000} {
		err := ValidateSeries(series)
		require.Error(t, err)
		assert.True(t, HasCode(err, CodeInvalidSeries))
	}
}

func TestValidateToken(t *testing.T) {
	assert.NoError(t, ValidateToken(uuid.New().String()))

	assert.True(t, HasCode(ValidateToken(""), CodeInvalidToken))
	assert.True(t, HasCode(ValidateToken("nao-e-um-uuid"), CodeInvalidToken))
}

func TestValidateMotive(t *testing.T) {
	// 14 caracteres não bastam, 15 bastam
	assert.Error(t, ValidateMotive(strings.Repeat("x", 14)))
	assert.NoError(t, ValidateMotive(strings.Repeat("x", 15)))

	// Espaços das pontas não contam
	assert.Error(t, ValidateMotive("   "+strings.Repeat("x", 14)+"   "))

	// Caracteres multibyte contam como um
	assert.NoError(t, ValidateMotive(strings.Repeat("ç", 15)))

	err := ValidateMotive("curta demais")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeMotiveTooShort))
}

func TestValidateAccessKey(t *testing.T) {
	assert.NoError(t, ValidateAccessKey(strings.Repeat("5", 44)))

	assert.Error(t, ValidateAccessKey(strings.Repeat("5", 43)))
	assert.Error(t, ValidateAccessKey(strings.Repeat("5", 45)))
	assert.Error(t, ValidateAccessKey(strings.Repeat("5", 43)+"a"))
	assert.True(t, HasCode(ValidateAccessKey(""), CodeInvalidAccessKey))
}

func TestNewDocument(t *testing.T) {
	token := uuid.New().String()
	doc, err := NewDocument(token, "term-1", "branch-1", ModelNFCe, 10)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, token, doc.IdempotencyToken)
	assert.Equal(t, StatusReservado, doc.Status)
	assert.Equal(t, int64(0), doc.Number)

	_, err = NewDocument(token, "", "branch-1", ModelNFCe, 10)
	assert.True(t, HasCode(err, CodeInvalidTerminal))

	_, err = NewDocument(token, "term-1", "branch-1", ModelNFCe, 0)
	assert.True(t, HasCode(err, CodeInvalidSeries))
}

func TestNewInutilization(t *testing.T) {
	motive := strings.Repeat("numeração pulada ", 2)

	inut, err := NewInutilization("branch-1", ModelNFCe, 1, 10, 20, "  "+motive+"  ")
	require.NoError(t, err)
	assert.Equal(t, StatusInutilizado, inut.Status)
	assert.Equal(t, strings.TrimSpace(motive), inut.Motive)

	// Faixa de um único número é válida
	_, err = NewInutilization("branch-1", ModelNFCe, 1, 5, 5, motive)
	assert.NoError(t, err)

	// Início maior que o fim
	_, err = NewInutilization("branch-1", ModelNFCe, 1, 21, 20, motive)
	assert.True(t, HasCode(err, CodeInvalidRange))

	// Início menor que 1
	_, err = NewInutilization("branch-1", ModelNFCe, 1, 0, 20, motive)
	assert.True(t, HasCode(err, CodeInvalidRange))
}

func TestDocumentCanCancel(t *testing.T) {
	doc := &Document{}

	for _, status := range []DocumentStatus{StatusReservado, StatusPreEmitido, StatusEmitido} {
		doc.Status = status
		assert.True(t, doc.CanCancel(), "status %s deve ser cancelável", status)
	}

	for _, status := range []DocumentStatus{StatusCancelado, StatusInutilizado} {
		doc.Status = status
		assert.False(t, doc.CanCancel(), "status %s não deve ser cancelável", status)
	}
}

func TestDocumentCanMarkEmitted(t *testing.T) {
	doc := &Document{Status: StatusReservado}
	assert.True(t, doc.CanMarkEmitted())

	doc.Status = StatusPreEmitido
	assert.True(t, doc.CanMarkEmitted())

	doc.Status = StatusEmitido
	assert.False(t, doc.CanMarkEmitted())

	doc.Status = StatusCancelado
	assert.False(t, doc.CanMarkEmitted())
}

func TestInutilizationOverlaps(t *testing.T) {
	inut := &Inutilization{NumberStart: 10, NumberEnd: 20}

	assert.True(t, inut.Overlaps(20, 30))
	assert.True(t, inut.Overlaps(1, 10))
	assert.True(t, inut.Overlaps(12, 15))
	assert.False(t, inut.Overlaps(21, 30))
	assert.False(t, inut.Overlaps(1, 9))

	assert.True(t, inut.Contains(10))
	assert.True(t, inut.Contains(20))
	assert.False(t, inut.Contains(21))
}
