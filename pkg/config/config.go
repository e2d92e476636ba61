package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Wallet WalletConfig `mapstructure:"wallet"`
}

type AppConfig struct {
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	MetricsFile string `mapstructure:"metrics_file"` // node_exporter textfile 路径，空则不写
}

// ChainConfig 链相关参数。HRP、chain id 等都来自配置，代码中不写死。
type ChainConfig struct {
	ChainID      string        `mapstructure:"chain_id"`
	Bech32Prefix string        `mapstructure:"bech32_prefix"`
	Denom        string        `mapstructure:"denom"`
	GasLimit     uint64        `mapstructure:"gas_limit"`
	GasPrice     string        `mapstructure:"gas_price"` // 十进制字符串，例如 "0.025"
	SignMode     string        `mapstructure:"sign_mode"` // "direct" or "legacy-json"
	HDPath       string        `mapstructure:"hd_path"`
	GrpcAddr     string        `mapstructure:"grpc_addr"`
	Timeout      time.Duration `mapstructure:"timeout"`
	WaitForTx    bool          `mapstructure:"wait_for_tx"`
}

type WalletConfig struct {
	KeystorePath string `mapstructure:"keystore_path"` // 本地 Keystore 文件路径
	Password     string `mapstructure:"password"`      // Keystore 密码 (通常通过环境变量 WALLET_PASSWORD 传入)
	Passphrase   string `mapstructure:"passphrase"`    // BIP-39 passphrase，默认空
}

var Global Config

func Init() {
	v := viper.GetViper()
	if err := Load(v, ""); err != nil {
		log.Fatalf("Fatal error config file: %s \n", err)
	}
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// Load 读取配置到 Global。file 为空时在 . 和 ./config 下查找 config.yaml。
func Load(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
		v.AddConfigPath(".")      // optionally look for config in the working directory
		v.AddConfigPath("./config")
	}

	// 环境变量设置
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			return err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	Global = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.metrics_file", "")

	v.SetDefault("chain.chain_id", "cosmoshub-4")
	v.SetDefault("chain.bech32_prefix", "cosmos")
	v.SetDefault("chain.denom", "uatom")
	v.SetDefault("chain.gas_limit", 200000)
	v.SetDefault("chain.gas_price", "0.025")
	v.SetDefault("chain.sign_mode", "direct")
	v.SetDefault("chain.hd_path", "m/44'/118'/0'/0/0")
	v.SetDefault("chain.grpc_addr", "localhost:9090")
	v.SetDefault("chain.timeout", 30*time.Second)
	v.SetDefault("chain.wait_for_tx", false)

	v.SetDefault("wallet.keystore_path", "wallet.json")
	// 需要注册默认值，AutomaticEnv 才会在 Unmarshal 时生效
	v.SetDefault("wallet.password", "")
	v.SetDefault("wallet.passphrase", "")
}
