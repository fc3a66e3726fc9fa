// Package bot — ядро устойчивости соединения вокруг сессии шлюза Discord.
// Бот:
//   - разбирает события жизненного цикла сессии (connect/ready/resumed/disconnect);
//   - на Ready находит целевой канал и, если он голосовой, заходит в него;
//   - крутит статус "<префикс> <сколько прошло>" раз в минуту (StatusRotator);
//   - раз в 30 секунд проверяет голосовое соединение и переподключается
//     с экспоненциальной задержкой (ConnectionMonitor + VoiceConnector);
//   - корректно гасит всё это в Shutdown (повторный вызов ничего не делает).
//
// Фоновые циклы никогда не возвращают ошибок наружу: всё логируется, циклы
// заканчиваются только по отмене контекста.
//
// Пример:
//
//	s, _ := gateway.New(token, gateway.DefaultOptions(), logger)
//	b := bot.New(s, bot.Config{ChannelID: "123", Activity: gateway.ActivityPlaying}, logger)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := b.Run(ctx); err != nil { log.Fatal(err) }
package bot
