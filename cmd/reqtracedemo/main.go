// reqtracedemo 演示请求追踪中间件：一个挂载了 xreqtrace 的 chi HTTP 服务。
//
// 用法:
//
//	reqtracedemo serve --config config.yaml
//
// 服务路由:
//
//	GET  /orders/{id}   查询订单（id 为 "missing" 时返回 404）
//	POST /orders        创建订单
//	GET  /panic         handler panic，演示错误计数
//	GET  /healthz       健康检查
//	GET  /metrics       Prometheus 指标（不被追踪）
//
// 退出码:
//
//	0: 正常退出（含收到 SIGINT / SIGTERM）
//	1: 运行失败
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xreqtrace/pkg/config/xconf"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "reqtracedemo",
		Usage:   "请求追踪中间件演示服务",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "启动 HTTP 服务",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "配置文件路径（yaml / json）",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "监听地址，覆盖配置中的 server.addr",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cmd.String("config"), cmd.String("addr"))
				},
			},
		},
		DefaultCommand: "help",
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string) int {
	if err := createApp().Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, xconf.ErrInvalidSettings),
		errors.Is(err, xconf.ErrEmptyPath),
		errors.Is(err, xconf.ErrUnsupportedFormat),
		errors.Is(err, xconf.ErrLoadFailed),
		errors.Is(err, xconf.ErrParseFailed),
		errors.Is(err, xconf.ErrUnmarshalFailed):
		return 2
	default:
		return 1
	}
}
