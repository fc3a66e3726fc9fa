// Package gateway — тонкая обёртка над discordgo, через которую ядро бота
// работает с Discord. Протокол шлюза (handshake, heartbeat, resume) целиком
// остаётся внутри discordgo; здесь только то, что нужно ядру:
//
//   - Open/Close сессии, IsReady/IsClosed, Identity;
//   - Events() — канал событий жизненного цикла (Connect, Disconnect, Ready,
//     Resumed), который заполняется из хендлеров discordgo и никогда не
//     блокирует читателя websocket'а;
//   - Channel(id) — поиск канала (сначала State, затем REST);
//   - UpdatePresence — смена/очистка активности с локальным лимитером;
//   - JoinVoice — вход в голосовой канал с жёстким таймаутом.
//
// Ошибки классифицируются функциями IsRateLimited, IsNotReady, IsConnClosed
// и IsStaleVoiceSession: они понимают *discordgo.RESTError и
// *websocket.CloseError, так что вызывающему коду не нужно знать о типах
// библиотек.
//
// Пример:
//
//	s, err := gateway.New(token, gateway.DefaultOptions(), logger)
//	if err != nil { return err }
//	if err := s.Open(); err != nil { return err }
//	defer s.Close()
//
//	for ev := range s.Events() {
//	    if ev.Kind == gateway.EventReady {
//	        _ = s.UpdatePresence(ctx, &gateway.Activity{Kind: gateway.ActivityWatching, Name: "логи"})
//	    }
//	}
package gateway
