package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	// 料金定数(外部から上書き可能。ハードコードしない)
	StandardUnitPrice  int   `json:"standardUnitPrice"`  // 施術+電療の合算単価(総額)
	TransportUnitPrice int   `json:"transportUnitPrice"` // 往療費(1回あたり)
	BurdenPriceTable   []int `json:"burdenPriceTable"`   // 1割/2割/3割の患者負担単価

	// 合算(未納繰越)の遡り上限月数
	MaxAggregateMonths int `json:"maxAggregateMonths"`

	// 全銀フォーマット出力の委託者情報
	CommitterCode string `json:"committerCode"`
	CommitterName string `json:"committerName"`

	// 口座振替結果の自動取得(ネットバンキング)
	BankPortalUserID   string `json:"bankPortalUserID"`
	BankPortalPassword string `json:"bankPortalPassword"`
	BankDownloadDir    string `json:"bankDownloadDir"`

	// 計算結果ペイロードのキャッシュ
	RedisAddr            string `json:"redisAddr"`
	PayloadMaxEntryBytes int    `json:"payloadMaxEntryBytes"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./seikyu_config.json"

func applyDefaults(c *Config) {
	if c.StandardUnitPrice == 0 {
		c.StandardUnitPrice = 4170
	}
	if c.TransportUnitPrice == 0 {
		c.TransportUnitPrice = 33
	}
	if len(c.BurdenPriceTable) != 3 {
		c.BurdenPriceTable = []int{417, 834, 1251}
	}
	if c.MaxAggregateMonths == 0 {
		c.MaxAggregateMonths = 12
	}
	if c.PayloadMaxEntryBytes == 0 {
		c.PayloadMaxEntryBytes = 90000
	}
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&tempCfg)
	cfg = tempCfg

	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	c := cfg
	applyDefaults(&c)
	return c
}
