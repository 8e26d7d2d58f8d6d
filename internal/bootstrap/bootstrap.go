package bootstrap

import (
	"zerofarm/internal/config"
	"zerofarm/internal/logger"
	"zerofarm/internal/scheduler"
)

// DefinitionsFromConfig builds the scheduler task definitions from config.yml
// and reports what is enabled. Disabled kinds still produce definitions so
// they can be toggled on at runtime.
func DefinitionsFromConfig(cfg *config.Config, log logger.Logger) []scheduler.Definition {
	log.Info("Загрузка определений задач из конфигурации...")

	defs := scheduler.DefinitionsFromConfig(cfg.Tasks)

	enabled := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Enabled {
			enabled = append(enabled, string(def.Kind))
		}
	}
	log.Info("Задачи, включенные для выполнения", "count", len(enabled), "tasks", enabled)

	return defs
}
