package main

import "spendwise/cmd"

// @title Spendwise 记账 API
// @version 1.0
// @description 个人记账 API，支持消费类别、支付方式余额、消费记录、汇总统计、小票和语音识别记账以及数据导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cmd.Execute()
}
