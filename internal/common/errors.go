// Package common — errors.go определяет ошибки, которые используются во всех
// модулях бота. Обработчики различают их и отправляют понятные сообщения.
package common

import "errors"

// Ошибки команд
var (
	// ErrMissingOption — не хватает аргумента команды
	ErrMissingOption = errors.New("не хватает параметров команды")
	// ErrUnknownUser — не удалось определить пользователя
	ErrUnknownUser = errors.New("пользователь не найден")
	// ErrInvalidAmount — некорректная сумма взноса
	ErrInvalidAmount = errors.New("некорректная сумма (не больше 2 знаков после запятой, от 0 до 1 000 000 000)")
	// ErrInvalidNumber — аргумент не является целым числом
	ErrInvalidNumber = errors.New("ожидается целое число")
)

// Ошибки изображений
var (
	// ErrNoCaptureDate — в EXIF нет даты съёмки
	ErrNoCaptureDate = errors.New("дата съёмки не найдена")
	// ErrImageTooLarge — файл больше допустимого размера
	ErrImageTooLarge = errors.New("изображение слишком большое")
)

// Ошибки хранилища
var (
	// ErrSnapshotNotFound — снапшот ещё не сохранялся
	ErrSnapshotNotFound = errors.New("снапшот не найден")
)
