// lms 是 LMS 平台的命令行客户端，serve 子命令同时提供本地视图服务。
package main

import (
	"os"

	"lms_client/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args))
}
