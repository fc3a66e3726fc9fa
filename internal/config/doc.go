// Package config читает настройки процесса из окружения (и .env, если он есть).
//
// Обязателен только DISCORD_TOKEN. Ошибочные необязательные значения не роняют
// запуск: они заменяются значением по умолчанию, а причина попадает в Config.Warnings,
// которые main логирует после инициализации логгера.
package config
