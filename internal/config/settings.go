package config

// DefaultSettings 定义所有设置的默认值
type DefaultSettings struct {
	DashboardURL string
	TablePath    string
	SessionStore string
	SessionFile  string
	RedisKey     string
	DevToolsURL  string
	Listen       string
}

// GetDefaultSettings 返回默认设置
func GetDefaultSettings() DefaultSettings {
	return DefaultSettings{
		DashboardURL: "https://dashboard.cpolar.com",
		TablePath:    `//*[@id="dashboard"]/div/div[2]/div[2]/table`,
		SessionStore: StoreFile,
		// 与旧版保持一致，放在工作目录下
		SessionFile: "session",
		RedisKey:    "cpolar:session",
		DevToolsURL: "http://localhost:9222",
		Listen:      "127.0.0.1:8088",
	}
}
