package model

import "errors"

// Ошибки хранилища, которые бизнес-слой разбирает отдельно
var (
	// ErrScheduleOverlap окно занятия пересекается с другим занятием того же учителя
	// (сработало ограничение на уровне БД)
	ErrScheduleOverlap = errors.New("lesson window overlaps another lesson of the teacher")
	// ErrAlreadyExists запись с таким ключом уже есть
	ErrAlreadyExists = errors.New("record already exists")
	// ErrUnknownReference ссылка на несуществующую запись (нарушен внешний ключ)
	ErrUnknownReference = errors.New("referenced record does not exist")
)
