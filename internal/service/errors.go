package service

import "errors"

// Виды отказов бизнес-логики. Обработчики транслируют их в классы
// HTTP-статусов, наружу уходит только человекочитаемое сообщение.
var (
	// ErrValidation — некорректный или неполный ввод; отклоняется до любых мутаций.
	ErrValidation = errors.New("validation error")
	// ErrNotFound — элемент отсутствует либо принадлежит другому владельцу.
	// Ответ одинаков в обоих случаях, чтобы не раскрывать существование чужих данных.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized — неверный секрет замка или учётных данных.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedContent — тип загружаемого файла не разрешён.
	ErrUnsupportedContent = errors.New("unsupported content")
	// ErrStorage — сбой файлового хранилища.
	ErrStorage = errors.New("storage failure")
)

// Error несёт вид отказа и сообщение для пользователя.
// errors.Is по виду работает через Unwrap.
type Error struct {
	kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.kind }

func failValidation(msg string) error { return &Error{kind: ErrValidation, Message: msg} }
func failNotFound(msg string) error   { return &Error{kind: ErrNotFound, Message: msg} }
func failUnauthorized(msg string) error {
	return &Error{kind: ErrUnauthorized, Message: msg}
}
func failUnsupported(msg string) error {
	return &Error{kind: ErrUnsupportedContent, Message: msg}
}
func failStorage(msg string) error { return &Error{kind: ErrStorage, Message: msg} }
