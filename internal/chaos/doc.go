// Package chaos はジョブへの障害注入機能を提供する。
//
// Injectorは投入されるジョブをラップし、一定間隔でpanicや遅延を注入する。
// ワーカープールが障害を隔離し、処理能力を維持できることを検証するために使用される。
//
// # 障害タイプ
//
// - Panic: ジョブ実行中にpanicを発生させる
// - Delay: ジョブの実行前に遅延を注入する
//
// # 使用例
//
//	config := chaos.DefaultConfig()
//	config.Every = 5 // 5件に1件
//	config.FaultTypes = []chaos.FaultType{chaos.FaultPanic}
//
//	injector := chaos.New(config)
//	d.Execute(injector.Wrap(job))
package chaos
