// Package logger expone un logger Zap global y helpers para propagarlo por
// context.Context.
//
// Inicialización en main:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "teamnest"})
//	defer logger.Sync()
//
// En services y controllers:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Rotate"))
//	log.Info("refresh rotated", logger.UserID(u.ID.String()))
//
// Nunca loguear secretos crudos (refresh/reset) ni hashes de password.
package logger
