// Пакет lifecycle — конечный автомат статусов документа.
//
// Жизненный цикл:
//   - draft → pending — отправка (только при создании, draft существует лишь на клиенте)
//   - pending → published — одобрение согласующим
//   - pending → rejected — отклонение согласующим
//
// published и rejected — конечные состояния. Статусом владеет backend:
// клиент наблюдает переходы через Observe и не переключает статус сам.
// Потокобезопасен через sync.RWMutex.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// Operation — действие над документом.
type Operation string

const (
	OpEdit     Operation = "edit"
	OpSubmit   Operation = "submit"
	OpApprove  Operation = "approve"
	OpReject   Operation = "reject"
	OpComment  Operation = "comment"
	OpStar     Operation = "star"
	OpDownload Operation = "download"
	OpDelete   Operation = "delete"
)

// Коды ошибок перехода.
const (
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
)

// TransitionRecord — запись о наблюдавшемся переходе.
// В JSON статусы передаются метками (draft, pending, ...), а не кодами backend.
type TransitionRecord struct {
	From      model.Status
	To        model.Status
	Subject   string
	Timestamp time.Time
}

// MarshalJSON сериализует запись со статусами-метками.
func (r TransitionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From      string    `json:"from"`
		To        string    `json:"to"`
		Subject   string    `json:"subject"`
		Timestamp time.Time `json:"timestamp"`
	}{
		From:      r.From.String(),
		To:        r.To.String(),
		Subject:   r.Subject,
		Timestamp: r.Timestamp,
	})
}

// validTransitions — матрица допустимых переходов.
var validTransitions = map[model.Status]map[model.Status]bool{
	model.StatusDraft:     {model.StatusPending: true},
	model.StatusPending:   {model.StatusPublished: true, model.StatusRejected: true},
	model.StatusPublished: {},
	model.StatusRejected:  {},
}

// needsConfirmation — переходы, которые пользователь подтверждает явно.
var needsConfirmation = map[model.Status]map[model.Status]bool{
	model.StatusPending: {model.StatusPublished: true, model.StatusRejected: true},
}

// allowedOperations — допустимые действия для каждого статуса.
var allowedOperations = map[model.Status]map[Operation]bool{
	model.StatusDraft: {OpEdit: true, OpSubmit: true},
	model.StatusPending: {
		OpEdit: true, OpApprove: true, OpReject: true,
		OpComment: true, OpStar: true, OpDownload: true, OpDelete: true,
	},
	model.StatusPublished: {OpComment: true, OpStar: true, OpDownload: true, OpDelete: true},
	model.StatusRejected:  {OpComment: true, OpStar: true, OpDownload: true, OpDelete: true},
}

// operationTargets — статус, в который переводит действие.
var operationTargets = map[Operation]model.Status{
	OpSubmit:  model.StatusPending,
	OpApprove: model.StatusPublished,
	OpReject:  model.StatusRejected,
}

// Tracker — наблюдаемое состояние одного документа.
type Tracker struct {
	mu      sync.RWMutex
	current model.Status
	history []TransitionRecord
}

// NewTracker создаёт автомат с начальным статусом.
func NewTracker(initial model.Status) (*Tracker, error) {
	if !isValidStatus(initial) {
		return nil, fmt.Errorf("недопустимый начальный статус: %s", initial)
	}
	return &Tracker{
		current: initial,
		history: make([]TransitionRecord, 0),
	}, nil
}

// Current возвращает текущий статус.
func (t *Tracker) Current() model.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// CanTransitionTo проверяет, допустим ли переход.
func (t *Tracker) CanTransitionTo(target model.Status) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return validTransitions[t.current][target]
}

// NeedsConfirmation проверяет, требует ли переход подтверждения пользователя.
func (t *Tracker) NeedsConfirmation(target model.Status) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return needsConfirmation[t.current][target]
}

// Check проверяет, можно ли запросить действие, переводящее документ в другой статус.
//
// Ошибки:
//   - INVALID_TRANSITION — действие недопустимо в текущем статусе
//   - CONFIRMATION_REQUIRED — переход требует confirm: true
func (t *Tracker) Check(op Operation, confirm bool) error {
	target, ok := operationTargets[op]
	if !ok {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("действие %s не меняет статус", op),
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if !validTransitions[t.current][target] {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("переход %s → %s недопустим", t.current, target),
		}
	}
	if needsConfirmation[t.current][target] && !confirm {
		return &TransitionError{
			Code:    CodeConfirmationRequired,
			Message: fmt.Sprintf("переход %s → %s требует подтверждения (confirm: true)", t.current, target),
		}
	}
	return nil
}

// Observe принимает статус, полученный от backend.
// Статус backend авторитетен и применяется всегда; для неожиданного
// перехода возвращается TransitionError, чтобы вызывающий мог его залогировать.
func (t *Tracker) Observe(target model.Status, subject string) error {
	if !isValidStatus(target) {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("недопустимый статус: %s", target),
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if target == t.current {
		return nil
	}

	from := t.current
	t.current = target
	t.history = append(t.history, TransitionRecord{
		From:      from,
		To:        target,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
	})

	if !validTransitions[from][target] {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("backend сообщил неожиданный переход %s → %s", from, target),
		}
	}
	return nil
}

// AllowedOperations возвращает действия, доступные в текущем статусе (отсортированы).
func (t *Tracker) AllowedOperations() []Operation {
	return OperationsFor(t.Current())
}

// CanPerform проверяет, допустимо ли действие в текущем статусе.
func (t *Tracker) CanPerform(op Operation) bool {
	return CanPerform(t.Current(), op)
}

// History возвращает копию истории наблюдавшихся переходов.
func (t *Tracker) History() []TransitionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]TransitionRecord, len(t.history))
	copy(result, t.history)
	return result
}

// OperationsFor возвращает действия, доступные в статусе (отсортированы).
func OperationsFor(status model.Status) []Operation {
	ops := allowedOperations[status]
	result := make([]Operation, 0, len(ops))
	for op := range ops {
		result = append(result, op)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// CanPerform проверяет, допустимо ли действие в статусе.
func CanPerform(status model.Status, op Operation) bool {
	return allowedOperations[status][op]
}

// TransitionError — ошибка перехода между статусами.
type TransitionError struct {
	Code    string // INVALID_TRANSITION, CONFIRMATION_REQUIRED
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isValidStatus проверяет, известен ли статус автомату.
func isValidStatus(s model.Status) bool {
	_, ok := validTransitions[s]
	return ok
}
