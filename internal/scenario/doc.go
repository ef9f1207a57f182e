// Package scenario は統合シナリオ実行機能を提供する。
//
// シナリオエンジンはワーカープール、Client、障害注入器、メトリクスを
// 連携させてワークロードを実行する。
//
// # 機能
//
// - シナリオ定義と実行
// - 定義済みプリセットシナリオ
// - 実行結果のレポート生成
//
// # プリセットシナリオ
//
// - quick: 4ワーカーで50msのジョブ8件（2ウェーブ）
// - serial: 1ワーカーでの逐次実行の比較用
// - burst: 多数の投入ゴルーチンからの大量ジョブ
// - faulty: panicするジョブを含む耐障害性テスト
//
// # 使用例
//
//	config := scenario.QuickScenario()
//	engine := scenario.New(config)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package scenario
