// Package logger provides the singleton Zap logger for gatehouse.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable vía LOG_LEVEL).
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En el resto del código:
//
//	log := logger.Named("store")
//	log.Info("database initialized", logger.Revision(rev))
package logger
