package cli

import (
	"io"
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnvs 按优先级加载 .env 文件，已存在的环境变量不会被覆盖。
// FEIYU_ENV 指定运行环境（默认 dev），.env.[环境].local 优先级最高。
func loadDotEnvs() {
	env := os.Getenv("FEIYU_ENV")
	if env == "" {
		env = "dev"
	}

	_ = godotenv.Load(".env." + env + ".local")
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load(".env")
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	return string(data), err
}
