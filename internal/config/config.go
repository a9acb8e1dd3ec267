package config

type SearchDriver string

const (
	DriverOpenSearch    SearchDriver = "opensearch"
	DriverElasticsearch SearchDriver = "elasticsearch"
)

type Config struct {
	Search struct {
		// opensearch | elasticsearch
		Driver   SearchDriver `json:"driver" yaml:"driver"`
		Address  string       `json:"address" yaml:"address"`
		Username string       `json:"username" yaml:"username"`
		Password string       `json:"password" yaml:"password"`
		// 仅 opensearch 驱动使用: 使用环境中的 AWS 凭证对请求做 SigV4 签名
		Sign               bool   `json:"sign" yaml:"sign"`
		Region             string `json:"region" yaml:"region"`
		Service            string `json:"service" yaml:"service"`
		Index              string `json:"index" yaml:"index"`
		TimeoutSeconds     int    `json:"timeout_seconds" yaml:"timeout_seconds"`
		InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	} `json:"search" yaml:"search"`

	Colly struct {
		AllowedDomains  []string `json:"allowed_domains" yaml:"allowed_domains"`
		UserAgent       string   `json:"user_agent" yaml:"user_agent"`
		IgnoreRobotsTxt bool     `json:"ignore_robots_txt" yaml:"ignore_robots_txt"`
		Parallelism     int      `json:"parallelism" yaml:"parallelism"`
		DelayMs         int      `json:"delay_ms" yaml:"delay_ms"`
		RandomDelayMs   int      `json:"random_delay_ms" yaml:"random_delay_ms"`
	} `json:"colly" yaml:"colly"`

	Wikipedia struct {
		Language     string `json:"language" yaml:"language"`
		FromYear     int    `json:"from_year" yaml:"from_year"`
		ToYear       int    `json:"to_year" yaml:"to_year"`
		YearDelayMs  int    `json:"year_delay_ms" yaml:"year_delay_ms"`
		TitlesFile   string `json:"titles_file" yaml:"titles_file"`
		ArticlesFile string `json:"articles_file" yaml:"articles_file"`
	} `json:"wikipedia" yaml:"wikipedia"`

	Embedder struct {
		Enabled   bool   `json:"enabled" yaml:"enabled"`
		Host      string `json:"host" yaml:"host"`
		Port      int    `json:"port" yaml:"port"`
		Model     string `json:"model" yaml:"model"`
		BatchSize int    `json:"batch_size" yaml:"batch_size"`
		Dims      int    `json:"dims" yaml:"dims"`
	} `json:"embedder" yaml:"embedder"`

	Loader struct {
		Workers int `json:"workers" yaml:"workers"`
	} `json:"loader" yaml:"loader"`

	Logging struct {
		// prod | dev | local
		Env   string `json:"env" yaml:"env"`
		Level string `json:"level" yaml:"level"`
	} `json:"logging" yaml:"logging"`
}
