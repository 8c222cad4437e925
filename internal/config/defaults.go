package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/samscope/data/contracts.db"
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "gpt-4o-mini"
	}
	if cfg.Model.EnhanceTokens == 0 {
		cfg.Model.EnhanceTokens = 100
	}
	if cfg.Model.AnalyzeTokens == 0 {
		cfg.Model.AnalyzeTokens = 1000
	}
	if cfg.Model.SummaryTokens == 0 {
		cfg.Model.SummaryTokens = 200
	}
	if cfg.Model.EntityTokens == 0 {
		cfg.Model.EntityTokens = 500
	}
	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = 50
	}
	if cfg.Search.PipelineLimit == 0 {
		cfg.Search.PipelineLimit = 100
	}
	if cfg.Search.AnalyzeRecords == 0 {
		cfg.Search.AnalyzeRecords = 10
	}
	if cfg.Search.SummaryRecords == 0 {
		cfg.Search.SummaryRecords = 5
	}
	if cfg.Search.EntityRecords == 0 {
		cfg.Search.EntityRecords = 5
	}
}
