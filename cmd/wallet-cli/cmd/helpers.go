package cmd

import (
	"context"
	"fmt"
	"sync"
	"syscall"

	"golang.org/x/term"

	"cosmos-core/internal/node"
	"cosmos-core/internal/service"
	"cosmos-core/pkg/config"
)

// readPassword 从终端读取密码，不回显
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(bytePassword), nil
}

// keystorePassword 优先使用配置 (WALLET_PASSWORD)，否则交互输入
func keystorePassword() (string, error) {
	if config.Global.Wallet.Password != "" {
		return config.Global.Wallet.Password, nil
	}
	return readPassword("请输入 Keystore 密码: ")
}

// cachedPassword 只调用一次 read，之后返回相同的结果
func cachedPassword(read func() (string, error)) func() (string, error) {
	var (
		once     sync.Once
		password string
		err      error
	)
	return func() (string, error) {
		once.Do(func() { password, err = read() })
		return password, err
	}
}

// lazySeed 第一次需要密钥时才询问密码，只广播的命令不会触发。
// 一个命令内只询问一次，缓存的是密码而不是种子。
func lazySeed() service.SeedSource {
	w := config.Global.Wallet
	password := cachedPassword(keystorePassword)
	return func(ctx context.Context) ([]byte, error) {
		pw, err := password()
		if err != nil {
			return nil, err
		}
		return service.KeystoreSeed(w.KeystorePath, pw, w.Passphrase)(ctx)
	}
}

// newService 按全局配置组装服务。online 为 true 时连接节点，返回的 cleanup 负责关闭连接。
func newService(online bool) (service.SignerService, *node.Client, func(), error) {
	cfg := config.Global.Chain
	cleanup := func() {}

	var client *node.Client
	var nodeClient service.NodeClient
	if online {
		c, err := node.New(cfg.GrpcAddr, node.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, nil, cleanup, err
		}
		client, nodeClient = c, c
		cleanup = func() { _ = c.Close() }
	}

	svc, err := service.NewSignerService(cfg, lazySeed(), nodeClient)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	return svc, client, cleanup, nil
}
