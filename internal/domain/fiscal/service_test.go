package fiscal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository implementa Repository em memória preservando as mesmas
// garantias do banco: contador monotônico por (terminal, modelo, série),
// unicidade do token e transições de estado guardadas.
type fakeRepository struct {
	mu              sync.Mutex
	counters        map[string]*SequenceCounter
	docsByToken     map[string]*Document
	preByToken      map[string]*PreEmission
	inutilizations  []*Inutilization
	inactiveCounter bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		counters:    map[string]*SequenceCounter{},
		docsByToken: map[string]*Document{},
		preByToken:  map[string]*PreEmission{},
	}
}

func counterKey(terminalID string, model DocumentModel, series int) string {
	return fmt.Sprintf("%s:%s:%d", terminalID, model, series)
}

func (r *fakeRepository) FindDocumentByToken(_ context.Context, token string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docsByToken[token]; ok {
		copied := *doc
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) FindDocumentByAccessKey(_ context.Context, accessKey string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docsByToken {
		if doc.AccessKey == accessKey {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) FindDocumentByNumber(_ context.Context, branchID string, model DocumentModel, series int, number int64) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docsByToken {
		if doc.BranchID == branchID && doc.DocumentModel == model && doc.Series == series && doc.Number == number {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) ReserveNextNumber(_ context.Context, doc *Document) (*Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.docsByToken[doc.IdempotencyToken]; ok {
		copied := *existing
		return &copied, false, nil
	}

	key := counterKey(doc.TerminalID, doc.DocumentModel, doc.Series)
	counter, ok := r.counters[key]
	if !ok {
		counter = &SequenceCounter{
			TerminalID:    doc.TerminalID,
			DocumentModel: doc.DocumentModel,
			Series:        doc.Series,
			Active:        !r.inactiveCounter,
			CreatedAt:     time.Now(),
		}
		r.counters[key] = counter
	}
	if !counter.Active {
		return nil, false, ErrCounterInactive
	}

	counter.LastNumber++
	counter.UpdatedAt = time.Now()

	doc.Number = counter.LastNumber
	stored := *doc
	r.docsByToken[doc.IdempotencyToken] = &stored

	copied := stored
	return &copied, true, nil
}

func (r *fakeRepository) FindPreEmissionByToken(_ context.Context, token string) (*PreEmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pre, ok := r.preByToken[token]; ok {
		copied := *pre
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) CreatePreEmission(_ context.Context, pre *PreEmission) (*PreEmission, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.preByToken[pre.IdempotencyToken]; ok {
		copied := *existing
		return &copied, false, nil
	}

	stored := *pre
	r.preByToken[pre.IdempotencyToken] = &stored

	if doc, ok := r.docsByToken[pre.IdempotencyToken]; ok && doc.Status == StatusReservado {
		doc.Status = StatusPreEmitido
		doc.UpdatedAt = time.Now()
	}

	copied := stored
	return &copied, true, nil
}

func (r *fakeRepository) CancelDocument(_ context.Context, cancellation *Cancellation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range r.docsByToken {
		if doc.ID == cancellation.DocumentID {
			switch doc.Status {
			case StatusReservado, StatusPreEmitido, StatusEmitido:
				doc.Status = StatusCancelado
				doc.Protocol = cancellation.Protocol
				doc.UpdatedAt = time.Now()
				return nil
			}
			return ErrInvalidTransition
		}
	}
	return ErrNotFound
}

func (r *fakeRepository) MarkDocumentEmitted(_ context.Context, documentID, accessKey, protocol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range r.docsByToken {
		if doc.ID == documentID {
			if doc.Status != StatusReservado && doc.Status != StatusPreEmitido {
				return ErrInvalidTransition
			}
			doc.Status = StatusEmitido
			doc.AccessKey = accessKey
			doc.Protocol = protocol
			doc.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepository) CreateInutilization(_ context.Context, inut *Inutilization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.inutilizations {
		if existing.BranchID == inut.BranchID && existing.DocumentModel == inut.DocumentModel &&
			existing.Series == inut.Series && existing.Overlaps(inut.NumberStart, inut.NumberEnd) {
			return ErrRangeOverlap
		}
	}

	for _, doc := range r.docsByToken {
		if doc.BranchID == inut.BranchID && doc.DocumentModel == inut.DocumentModel &&
			doc.Series == inut.Series && doc.Number >= inut.NumberStart && doc.Number <= inut.NumberEnd {
			return ErrNumberInUse
		}
	}

	stored := *inut
	r.inutilizations = append(r.inutilizations, &stored)
	return nil
}

func (r *fakeRepository) ListInutilizations(_ context.Context, branchID string, model DocumentModel, series int) ([]*Inutilization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []*Inutilization{}
	for _, inut := range r.inutilizations {
		if inut.BranchID == branchID && inut.DocumentModel == model && inut.Series == series {
			copied := *inut
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeRepository) ListCountersByTerminal(_ context.Context, terminalID string) ([]*SequenceCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []*SequenceCounter{}
	for _, counter := range r.counters {
		if counter.TerminalID == terminalID {
			copied := *counter
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeTerminals struct {
	terminals map[string]*TerminalInfo
}

func (f *fakeTerminals) ResolveTerminal(_ context.Context, terminalID string) (*TerminalInfo, error) {
	if info, ok := f.terminals[terminalID]; ok {
		return info, nil
	}
	return nil, ErrNotFound
}

type fakeAccess struct {
	denied map[string]bool
}

func (f *fakeAccess) HasBranchAccess(_ context.Context, userID, branchID string) (bool, error) {
	return !f.denied[userID+":"+branchID], nil
}

type fakeCerts struct {
	expirations map[string]time.Time
}

func (f *fakeCerts) CertificateExpiration(_ context.Context, branchID string) (time.Time, error) {
	if exp, ok := f.expirations[branchID]; ok {
		return exp, nil
	}
	return time.Time{}, ErrNotFound
}

const (
	testTerminal = "f3b31f76-0c1d-4a68-a9a9-04a0f1b3a001"
	testBranch   = "9a1dfb1c-55c4-41ad-9d50-1b7cc1a4b002"
	testActor    = "6c7fd7b0-31c5-4d31-b6a5-8a5f6c6fb003"
)

type testEnv struct {
	repo      *fakeRepository
	terminals *fakeTerminals
	access    *fakeAccess
	certs     *fakeCerts
	service   *Service
}

func newTestEnv(policy Policy) *testEnv {
	repo := newFakeRepository()
	terminals := &fakeTerminals{terminals: map[string]*TerminalInfo{
		testTerminal: {ID: testTerminal, BranchID: testBranch, Active: true},
	}}
	access := &fakeAccess{denied: map[string]bool{}}
	certs := &fakeCerts{expirations: map[string]time.Time{
		testBranch: time.Now().Add(24 * time.Hour),
	}}

	return &testEnv{
		repo:      repo,
		terminals: terminals,
		access:    access,
		certs:     certs,
		service:   NewService(repo, terminals, access, certs, policy, logger.NewNopLogger()),
	}
}

func validMotive() string {
	return "erro de operação no caixa"
}

func TestReserve_SequentialNumbers(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		doc, created, err := env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, want, doc.Number)
		assert.Equal(t, StatusReservado, doc.Status)
		assert.Equal(t, ModelNFCe, doc.DocumentModel)
	}
}

func TestReserve_IdempotentReplay(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()
	token := uuid.New().String()

	first, created, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)

	// O replay não avança o contador
	counters, err := env.service.ListTerminalCounters(ctx, testActor, testTerminal)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Equal(t, int64(1), counters[0].LastNumber)
}

func TestReserve_ConcurrentTokensGetDistinctNumbers(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	const n = 50
	numbers := make(chan int64, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
			if err != nil {
				t.Errorf("reserva falhou: %v", err)
				return
			}
			numbers <- doc.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "número %d atribuído mais de uma vez", number)
		seen[number] = true
	}
	require.Len(t, seen, n)
	for want := int64(1); want <= n; want++ {
		assert.True(t, seen[want], "número %d não foi atribuído", want)
	}
}

func TestReserve_SeparateSeriesHaveSeparateCounters(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	docA, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
	require.NoError(t, err)
	docB, _, err := env.service.Reserve(ctx, testActor, testTerminal, 2, uuid.New().String())
	require.NoError(t, err)

	assert.Equal(t, int64(1), docA.Number)
	assert.Equal(t, int64(1), docB.Number)
}

func TestReserve_Validation(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	_, _, err := env.service.Reserve(ctx, testActor, testTerminal, 0, uuid.New().String())
	assert.True(t, HasCode(err, CodeInvalidSeries))

	_, _, err = env.service.Reserve(ctx, testActor, testTerminal, 1, "token-invalido")
	assert.True(t, HasCode(err, CodeInvalidToken))
}

func TestReserve_TerminalChecks(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	_, _, err := env.service.Reserve(ctx, testActor, uuid.New().String(), 1, uuid.New().String())
	assert.True(t, HasCode(err, CodeTerminalNotFound))

	env.terminals.terminals[testTerminal].Active = false
	_, _, err = env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
	assert.True(t, HasCode(err, CodeTerminalInactive))
}

func TestReserve_AccessDenied(t *testing.T) {
	env := newTestEnv(Policy{})
	env.access.denied[testActor+":"+testBranch] = true

	_, _, err := env.service.Reserve(context.Background(), testActor, testTerminal, 1, uuid.New().String())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPermissionDenied))
}

func TestReserve_CertificateChecks(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	env.certs.expirations[testBranch] = time.Now().Add(-time.Hour)
	_, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
	assert.True(t, HasCode(err, CodeCertificateExpired))

	delete(env.certs.expirations, testBranch)
	_, _, err = env.service.Reserve(ctx, testActor, testTerminal, 1, uuid.New().String())
	assert.True(t, HasCode(err, CodeCertificateMissing))
}

func TestReserve_CounterInactive(t *testing.T) {
	env := newTestEnv(Policy{})
	env.repo.inactiveCounter = true

	_, _, err := env.service.Reserve(context.Background(), testActor, testTerminal, 1, uuid.New().String())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeCounterInactive))
	assert.True(t, IsKind(err, KindForbidden))
}

func TestSubmitPreEmission(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()
	token := uuid.New().String()

	doc, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)

	payload := json.RawMessage(`{"total": 125.90, "items": 3}`)
	pre, created, err := env.service.SubmitPreEmission(ctx, testActor, token, payload)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, doc.Number, pre.Number)
	assert.JSONEq(t, string(payload), string(pre.Payload))

	// A reserva avança para PRE_EMITIDO
	stored, err := env.service.GetReservation(ctx, testActor, token)
	require.NoError(t, err)
	assert.Equal(t, StatusPreEmitido, stored.Status)

	// Replay: o payload gravado pela primeira chamada permanece
	replay, created, err := env.service.SubmitPreEmission(ctx, testActor, token, json.RawMessage(`{"total": 999}`))
	require.NoError(t, err)
	assert.False(t, created)
	assert.JSONEq(t, string(payload), string(replay.Payload))
}

func TestSubmitPreEmission_Errors(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	_, _, err := env.service.SubmitPreEmission(ctx, testActor, uuid.New().String(), nil)
	assert.True(t, HasCode(err, CodeReservationNotFound))

	token := uuid.New().String()
	_, _, err = env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)

	_, _, err = env.service.SubmitPreEmission(ctx, testActor, token, json.RawMessage(`{invalido`))
	assert.True(t, HasCode(err, CodeInvalidPayload))
}

func TestMarkEmitted(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()
	token := uuid.New().String()
	accessKey := strings.Repeat("7", 44)

	_, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)

	doc, err := env.service.MarkEmitted(ctx, testActor, token, accessKey, "135250000012345")
	require.NoError(t, err)
	assert.Equal(t, StatusEmitido, doc.Status)
	assert.Equal(t, accessKey, doc.AccessKey)

	// Segunda emissão do mesmo documento é conflito
	_, err = env.service.MarkEmitted(ctx, testActor, token, accessKey, "135250000012346")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	_, err = env.service.MarkEmitted(ctx, testActor, token, "123", "x")
	assert.True(t, HasCode(err, CodeInvalidAccessKey))
}

func TestCancel_ByNumber(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()
	token := uuid.New().String()

	doc, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)

	lookup := CancellationLookup{BranchID: testBranch, Number: doc.Number, Series: doc.Series}
	cancellation, err := env.service.Cancel(ctx, testActor, lookup, validMotive())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelado, cancellation.Status)
	assert.NotEmpty(t, cancellation.Protocol)
	assert.Equal(t, doc.Number, cancellation.Number)

	stored, err := env.service.GetReservation(ctx, testActor, token)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelado, stored.Status)

	// Cancelar de novo é conflito
	_, err = env.service.Cancel(ctx, testActor, lookup, validMotive())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.True(t, HasCode(err, CodeTerminalState))
}

func TestCancel_ByAccessKeyAfterEmission(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()
	token := uuid.New().String()
	accessKey := strings.Repeat("3", 44)

	_, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)
	_, err = env.service.MarkEmitted(ctx, testActor, token, accessKey, "135250000054321")
	require.NoError(t, err)

	cancellation, err := env.service.Cancel(ctx, testActor, CancellationLookup{AccessKey: accessKey}, validMotive())
	require.NoError(t, err)
	assert.Equal(t, accessKey, cancellation.AccessKey)
}

func TestCancel_LookupValidation(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	// Nenhuma forma de identificação
	_, err := env.service.Cancel(ctx, testActor, CancellationLookup{}, validMotive())
	assert.True(t, HasCode(err, CodeInvalidLookup))

	// As duas formas ao mesmo tempo
	both := CancellationLookup{AccessKey: strings.Repeat("1", 44), BranchID: testBranch, Number: 1, Series: 1}
	_, err = env.service.Cancel(ctx, testActor, both, validMotive())
	assert.True(t, HasCode(err, CodeInvalidLookup))

	// Justificativa curta
	_, err = env.service.Cancel(ctx, testActor, CancellationLookup{AccessKey: strings.Repeat("1", 44)}, "curta")
	assert.True(t, HasCode(err, CodeMotiveTooShort))

	// Documento inexistente
	_, err = env.service.Cancel(ctx, testActor, CancellationLookup{AccessKey: strings.Repeat("1", 44)}, validMotive())
	assert.True(t, HasCode(err, CodeDocumentNotFound))
}

func TestCancel_CertificatePolicy(t *testing.T) {
	env := newTestEnv(Policy{CancelRequiresValidCertificate: true})
	ctx := context.Background()
	token := uuid.New().String()

	doc, _, err := env.service.Reserve(ctx, testActor, testTerminal, 1, token)
	require.NoError(t, err)

	env.certs.expirations[testBranch] = time.Now().Add(-time.Hour)

	lookup := CancellationLookup{BranchID: testBranch, Number: doc.Number, Series: doc.Series}
	_, err = env.service.Cancel(ctx, testActor, lookup, validMotive())
	assert.True(t, HasCode(err, CodeCertificateExpired))
}

func TestInutilizeRange(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	inut, err := env.service.InutilizeRange(ctx, testActor, testBranch, 1, 100, 150, validMotive())
	require.NoError(t, err)
	assert.Equal(t, StatusInutilizado, inut.Status)
	assert.NotEmpty(t, inut.Protocol)

	listed, err := env.service.ListInutilizations(ctx, testActor, testBranch, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(100), listed[0].NumberStart)
}

func TestInutilizeRange_Conflicts(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	_, err := env.service.InutilizeRange(ctx, testActor, testBranch, 1, 100, 150, validMotive())
	require.NoError(t, err)

	// Faixa que intersecta a anterior
	_, err = env.service.InutilizeRange(ctx, testActor, testBranch, 1, 150, 200, validMotive())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeRangeOverlap))

	// Faixa contendo um número já reservado
	doc, _, err := env.service.Reserve(ctx, testActor, testTerminal, 2, uuid.New().String())
	require.NoError(t, err)
	_, err = env.service.InutilizeRange(ctx, testActor, testBranch, 2, doc.Number, doc.Number+10, validMotive())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeNumberInUse))

	// Séries diferentes não conflitam
	_, err = env.service.InutilizeRange(ctx, testActor, testBranch, 3, 100, 150, validMotive())
	assert.NoError(t, err)
}

func TestInutilizeRange_Validation(t *testing.T) {
	env := newTestEnv(Policy{})
	ctx := context.Background()

	_, err := env.service.InutilizeRange(ctx, testActor, testBranch, 1, 20, 10, validMotive())
	assert.True(t, HasCode(err, CodeInvalidRange))

	_, err = env.service.InutilizeRange(ctx, testActor, testBranch, 1, 10, 20, "curta")
	assert.True(t, HasCode(err, CodeMotiveTooShort))
}

func TestGetReservation_NotFound(t *testing.T) {
	env := newTestEnv(Policy{})

	_, err := env.service.GetReservation(context.Background(), testActor, uuid.New().String())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeReservationNotFound))
}
